package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/itchyny/gojq"
)

// printJSON 缩进输出；filter 非空时先经过 jq 表达式，每个结果一行
func printJSON(w io.Writer, v any, filter string) error {
	if filter == "" {
		return writeIndented(w, v)
	}

	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("parse jq filter: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("compile jq filter: %w", err)
	}

	// gojq 只接受 map[string]any / []any 这类通用值
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var generic any
	if err := sonic.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}

	iter := code.Run(generic)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		if s, isStr := out.(string); isStr {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			continue
		}
		if err := writeIndented(w, out); err != nil {
			return err
		}
	}
}

func writeIndented(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
