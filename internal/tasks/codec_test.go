package tasks

import (
	"strings"
	"testing"
	"time"
)

func TestDecode_BrowserLayout(t *testing.T) {
	blob := `[
		{"id":"1709999999999","title":"Pay rent","description":"","completed":false,
		 "priority":"high","category":"home","dueDate":"2024-06-01","createdAt":"2024-05-20T08:15:00.000Z"},
		{"id":"1710000000000","title":"Read","description":"chapter 3","completed":true,
		 "priority":"low","category":"","dueDate":null,"createdAt":"2024-05-21T10:00:00.000Z"}
	]`
	list, err := Decode([]byte(blob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].Priority != PriorityHigh || list[0].DueDate == nil || list[0].DueDate.String() != "2024-06-01" {
		t.Errorf("first task decoded wrong: %+v", list[0])
	}
	if !list[0].CreatedAt.Equal(time.Date(2024, 5, 20, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("createdAt decoded wrong: %v", list[0].CreatedAt)
	}
	if list[1].DueDate != nil || !list[1].Completed {
		t.Errorf("second task decoded wrong: %+v", list[1])
	}
}

func TestDecode_EmptyDueDateIsAbsent(t *testing.T) {
	list, err := Decode([]byte(`[{"id":"a","title":"x","priority":"medium","dueDate":"","createdAt":"2024-01-01T00:00:00Z"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if list[0].DueDate != nil {
		t.Fatalf("expected nil due date, got %v", list[0].DueDate)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{{{`,
		"bad priority": `[{"id":"a","title":"x","priority":"urgent","createdAt":"2024-01-01T00:00:00Z"}]`,
		"bad date":     `[{"id":"a","title":"x","priority":"low","dueDate":"tomorrow","createdAt":"2024-01-01T00:00:00Z"}]`,
		"missing id":   `[{"title":"x","priority":"low","createdAt":"2024-01-01T00:00:00Z"}]`,
		"wrong shape":  `{"tasks":[]}`,
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(blob)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestEncode_FieldNames(t *testing.T) {
	data, err := Encode([]Task{{
		ID:        "x",
		Title:     "t",
		Priority:  PriorityLow,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"id":"x"`, `"title":"t"`, `"description":""`, `"completed":false`,
		`"priority":"low"`, `"category":""`, `"dueDate":null`, `"createdAt":"2024-01-02T03:04:05Z"`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded blob %s missing %s", s, want)
		}
	}

	empty, err := Encode(nil)
	if err != nil || string(empty) != "[]" {
		t.Fatalf("expected [] for nil list, got %s, %v", empty, err)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"low", PriorityLow, true},
		{"Medium", PriorityMedium, true},
		{" HIGH ", PriorityHigh, true},
		{"h", PriorityHigh, true},
		{"urgent", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil || d.String() != "2024-02-29" {
		t.Fatalf("unexpected %v, %v", d, err)
	}
	d, err = ParseDate("")
	if err != nil || d != nil {
		t.Fatalf("empty input should be no date, got %v, %v", d, err)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatal("expected invalid month to fail")
	}
	d, err = ParseDate("2024-02-29T15:00:00Z")
	if err != nil || !d.Time().Equal(time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected RFC 3339 to keep time of day, got %v, %v", d, err)
	}
}
