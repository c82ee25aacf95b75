package blockstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Predicate
		connect bool
	}{
		{name: "empty string is one empty clause", in: "", want: Predicate{{}}},
		{name: "single pair", in: "facing=north", want: Predicate{{"facing": "north"}}},
		{
			name: "or of ands",
			in:   "facing=north,half=top||facing=south",
			want: Predicate{{"facing": "north", "half": "top"}, {"facing": "south"}},
		},
		{name: "tokens without equals are dropped", in: "normal,facing=east,,x", want: Predicate{{"facing": "east"}}},
		{name: "no equals anywhere", in: "normal", want: Predicate{{}}},
		{name: "trailing separator adds no clause", in: "a=b||", want: Predicate{{"a": "b"}}},
		{name: "only separators", in: "||", want: nil},
		{name: "inner empty clause kept", in: "a=b||||c=d", want: Predicate{{"a": "b"}, {}, {"c": "d"}}},
		{name: "second equals truncates value", in: "a=b=c", want: Predicate{{"a": "b"}}},
		{name: "empty value", in: "a=", want: Predicate{{"a": ""}}},
		{name: "keys are not trimmed", in: " facing=north", want: Predicate{{" facing": "north"}}},
		{
			name:    "connection key in any clause",
			in:      "facing=north||miex_connect_north=true",
			want:    Predicate{{"facing": "north"}, {"miex_connect_north": "true"}},
			connect: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, connect := ParseCondition(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.connect, connect)
		})
	}
}

func TestPredicate_String(t *testing.T) {
	p, _ := ParseCondition("half=top,facing=north||facing=south")
	assert.Equal(t, "facing=north,half=top||facing=south", p.String())
}

func TestClause_ConnectKeysSorted(t *testing.T) {
	c := Clause{"miex_connect_west": "true", "facing": "north", "miex_connect_east": "self"}
	assert.Equal(t, []string{"miex_connect_east", "miex_connect_west"}, c.connectKeys())
}

func TestValuesMatch(t *testing.T) {
	cases := []struct {
		want, got string
		ok        bool
	}{
		{"north", "north", true},
		{"north", "North", false},
		{"false", "0", true},
		{"true", "1", true},
		{"0", "false", true},
		{"1", "true", true},
		{"true", "0", false},
		{"false", "1", false},
		{"true", "2", false},
		{"false", "2", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, valuesMatch(c.want, c.got), "valuesMatch(%q, %q)", c.want, c.got)
	}
}
