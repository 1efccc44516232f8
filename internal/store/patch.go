// patch.go — поверхностное слияние патча в документ.
// Ключ патча может быть dot-path ("profile.city"): промежуточные
// объекты создаются по дороге.
package store

import "strings"

// ApplyPatch накладывает patch на doc (in-place).
// Значение nil удаляет поле.
func ApplyPatch(doc map[string]any, patch map[string]any) {
	for key, value := range patch {
		parts := strings.Split(key, ".")
		target := doc

		// Спускаемся до родителя последнего сегмента
		for _, p := range parts[:len(parts)-1] {
			child, ok := target[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				target[p] = child
			}
			target = child
		}

		last := parts[len(parts)-1]
		if value == nil {
			delete(target, last)
		} else {
			target[last] = value
		}
	}
}
