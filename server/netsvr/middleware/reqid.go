// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"context"
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// maxReqIDLen 外部帶入的 request id 長度上限，超過就改用自產的
const maxReqIDLen = 64

// RequestID 優先沿用 client 的 X-Request-Id，否則交給 chi 產生；
// 最終的 id 會寫回 response header。
func RequestID(next http.Handler) http.Handler {
	gen := chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(chimid.RequestIDHeader, ReqID(r))
		next.ServeHTTP(w, r)
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(chimid.RequestIDHeader))
		if id == "" || len(id) > maxReqIDLen || strings.ContainsAny(id, "\r\n") {
			r.Header.Del(chimid.RequestIDHeader)
			gen.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), chimid.RequestIDKey, id)
		w.Header().Set(chimid.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ReqID 目前請求的 id；沒有經過 RequestID 時為空字串
func ReqID(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}

// shortReqID chi 產生的 id 形如 host/prefix-000123，log 只留流水號
func shortReqID(r *http.Request) string {
	id := ReqID(r)
	i := strings.LastIndex(id, "-")
	if i < 0 || i+1 >= len(id) {
		return id
	}
	return id[i+1:]
}
