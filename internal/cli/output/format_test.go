package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" table ", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"count": 3}); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 3`) {
		t.Errorf("Unexpected JSON output: %s", buf.String())
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAML(&buf, map[string]int{"count": 3}); err != nil {
		t.Fatalf("PrintYAML failed: %v", err)
	}
	if !strings.Contains(buf.String(), "count: 3") {
		t.Errorf("Unexpected YAML output: %s", buf.String())
	}
}

func TestPrintTable(t *testing.T) {
	data := NewTableData("NAME", "ONLINE")
	data.AddRow("alice", "yes")
	data.AddRow("bob", "no")

	var buf bytes.Buffer
	if err := PrintTable(&buf, data); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"NAME", "ONLINE", "alice", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table output missing %q:\n%s", want, out)
		}
	}
}
