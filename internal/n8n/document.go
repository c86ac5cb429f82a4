package n8n

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format — формат файла документа.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf определяет формат по расширению файла.
// Всё, что не .yaml/.yml, читается как JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ResolvePath возвращает путь к документу.
// Относительные пути считаются от baseDir.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// LoadDocument читает и парсит документ workflow.
//
// Любая ошибка чтения или парсинга возвращается как *LoadError.
// Сеть не используется.
func LoadDocument(baseDir, path string) (Document, error) {
	fullPath := ResolvePath(baseDir, path)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	doc, err := ParseDocument(data, FormatOf(fullPath))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return doc, nil
}

// ParseDocument парсит содержимое документа в заданном формате.
func ParseDocument(data []byte, format Format) (Document, error) {
	var (
		v   any
		err error
	)

	switch format {
	case FormatYAML:
		v, err = parseYAML(data)
	default:
		v, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidDocument
	}
	return Document(obj), nil
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	// Числа остаются json.Number, чтобы не терять точность при повторной сериализации
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("parse JSON: unexpected data after document")
	}
	return v, nil
}

func parseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return normalizeYAML(v), nil
}

// normalizeYAML приводит map[any]any к map[string]any, иначе encoding/json
// не сможет сериализовать документ.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
