/*
Copyright 2023 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package common

import (
	"sort"

	"github.com/samber/lo"
)

// MapToSlice converts {key1: val1, key2: val2 ...} to [key1, val1, key2, val2 ...], ordered by key
func MapToSlice[V any](m map[string]V) []interface{} {
	out := make([]interface{}, 0, len(m)*2)
	for _, key := range SortedKeys(m) {
		out = append(out, key, m[key])
	}

	return out
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)

	return keys
}
