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

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// uniformityTest 落點是否均勻：Pearson 卡方檢定，期望值為 n/k。
// 回傳 (chi2, 自由度, p-value)；樣本不足時 p-value 為 1。
func uniformityTest(counts []int) (float64, int, float64) {
	k := len(counts)
	if k < 2 {
		return 0, 0, 1
	}
	n := 0
	for _, c := range counts {
		n += c
	}
	if n == 0 {
		return 0, k - 1, 1
	}
	obs := make([]float64, k)
	exp := make([]float64, k)
	e := float64(n) / float64(k)
	for i, c := range counts {
		obs[i] = float64(c)
		exp[i] = e
	}
	x := stat.ChiSquare(obs, exp)
	dof := k - 1
	p := distuv.ChiSquared{K: float64(dof)}.Survival(x)
	if math.IsNaN(p) {
		p = 1
	}
	return x, dof, p
}

// meanStd 以累計和還原平均與樣本標準差
func meanStd(sum, sqSum float64, n int) (float64, float64) {
	if n == 0 {
		return 0, 0
	}
	fn := float64(n)
	mean := sum / fn
	if n < 2 {
		return mean, 0
	}
	variance := (sqSum - sum*sum/fn) / (fn - 1)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
