package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusInputKind различает способы указания статуса вызывающей стороной.
type StatusInputKind int

const (
	// StatusUnset статус не указан, обновление его не меняет.
	StatusUnset StatusInputKind = iota
	// StatusByID статус указан числовым идентификатором.
	StatusByID
	// StatusByName статус указан отображаемым именем.
	StatusByName
)

// StatusInput размеченное объединение {не задан | по id | по имени}.
// Строится на границе вызова, чтобы разрешение статуса не гадало о типах.
type StatusInput struct {
	kind StatusInputKind
	id   int
	name string
}

// StatusInputByID строит ввод статуса по идентификатору.
func StatusInputByID(id int) StatusInput {
	return StatusInput{kind: StatusByID, id: id}
}

// StatusInputByName строит ввод статуса по имени. Пустое или состоящее
// из пробелов имя эквивалентно отсутствию статуса.
func StatusInputByName(name string) StatusInput {
	if strings.TrimSpace(name) == "" {
		return StatusInput{}
	}
	return StatusInput{kind: StatusByName, name: name}
}

// StatusInputFromJSON строит ввод статуса из произвольного JSON-значения,
// как его присылает слой инструментов (строка, число или null).
func StatusInputFromJSON(v any) (StatusInput, error) {
	switch val := v.(type) {
	case nil:
		return StatusInput{}, nil
	case string:
		return StatusInputByName(val), nil
	case float64:
		return StatusInputByID(int(val)), nil
	case int:
		return StatusInputByID(val), nil
	case json.Number:
		id, err := val.Int64()
		if err != nil {
			return StatusInput{}, &ValidationError{Field: "status", Message: "Status must be a name or an integer ID"}
		}
		return StatusInputByID(int(id)), nil
	default:
		return StatusInput{}, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("Status must be a name or an integer ID, got %T", v),
		}
	}
}

// Kind возвращает вид ввода.
func (s StatusInput) Kind() StatusInputKind { return s.kind }

// IsUnset истинно, когда смена статуса не запрошена.
func (s StatusInput) IsUnset() bool { return s.kind == StatusUnset }

// ID возвращает идентификатор для ввода вида StatusByID.
func (s StatusInput) ID() int { return s.id }

// Name возвращает имя для ввода вида StatusByName.
func (s StatusInput) Name() string { return s.name }

// String возвращает исходный ввод в виде строки для сообщений об ошибках.
func (s StatusInput) String() string {
	switch s.kind {
	case StatusByID:
		return fmt.Sprintf("%d", s.id)
	case StatusByName:
		return s.name
	default:
		return ""
	}
}
