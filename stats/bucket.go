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

// TimeBuckets
//
// 用來快速定位轉動時間 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - 區間（秒）: [0,4), [4,5), [5,5.5), ..., [10,20), [20,+inf)
type TimeBuckets struct {
	edges []float64
	names []string
	lut   []int // lut[centisecond] = idx
}

// lutResolution LUT 的時間解析度（每秒幾格）
const lutResolution = 100

var Buckets *TimeBuckets = newTimeBuckets(
	[]float64{0, 4, 5, 5.5, 6, 6.5, 7, 8, 10, 20},
	[]string{"[0,4)", "[4,5)", "[5,5.5)", "[5.5,6)", "[6,6.5)", "[6.5,7)", "[7,8)", "[8,10)", "[10,20)", "[20,+inf)"},
)

func newTimeBuckets(edges []float64, names []string) *TimeBuckets {
	last := edges[len(edges)-1]
	n := int(last * lutResolution)
	lut := make([]int, n)
	idx := 0
	for i := 0; i < n; i++ {
		sec := float64(i) / lutResolution
		// 僅在還有更高邊界時才前進 idx，避免越界讀取
		for idx < len(edges)-1 && sec >= edges[idx+1] {
			idx++
		}
		lut[i] = idx
	}
	return &TimeBuckets{edges: edges, names: names, lut: lut}
}

func (b *TimeBuckets) Names() []string {
	return b.names
}

func (b *TimeBuckets) Len() int {
	return len(b.names)
}

// Index 秒數 -> 區間索引；負值歸入第一格，超出上限歸入最後一格
func (b *TimeBuckets) Index(sec float64) int {
	if !(sec > 0) {
		return 0
	}
	i := int(sec * lutResolution)
	if i >= len(b.lut) {
		return len(b.names) - 1
	}
	return b.lut[i]
}
