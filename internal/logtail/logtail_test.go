package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "earlier output",
			expected: "earlier output",
		},
		{
			name:     "broken json",
			input:    `{"msg":`,
			expected: `{"msg":`,
		},
		{
			name:     "request log",
			input:    `{"level":"debug","ts":"2026-10-19T08:00:00.000Z","logger":"ladle.http","caller":"httpclient/client.go:307","msg":"request completed","method":"GET","status":200,"retried":false}`,
			expected: "2026-10-19T08:00:00.000Z DEBUG [ladle.http] request completed method=GET retried=false status=200",
		},
		{
			name:     "quoted value",
			input:    `{"level":"warn","ts":"2026-10-19T08:00:01.000Z","msg":"server logout failed","error":"api POST /auth/logout/ returned status 500"}`,
			expected: `2026-10-19T08:00:01.000Z WARN  server logout failed error="api POST /auth/logout/ returned status 500"`,
		},
		{
			name:     "nested value",
			input:    `{"level":"info","msg":"loaded","ids":[1,2]}`,
			expected: "INFO  loaded ids=[1,2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatLine(tt.input)
			if result != tt.expected {
				t.Errorf("FormatLine() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatLines(t *testing.T) {
	input := []string{
		`{"level":"info","msg":"signed in","username":"a"}`,
		"plain",
	}
	expected := []string{
		"INFO  signed in username=a",
		"plain",
	}

	result := FormatLines(input)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("FormatLines() = %q, want %q", result, expected)
	}
}
