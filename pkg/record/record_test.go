package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		leading    string
		wantBlocks [][]Field
		wantErrs   int
	}{
		{
			name:       "empty input",
			raw:        "",
			wantBlocks: nil,
		},
		{
			name:       "only blank lines",
			raw:        "\n\n  \n\t\n",
			wantBlocks: nil,
		},
		{
			name: "single block trims label and value",
			raw:  "Repo ID:   rhel-7-server-rpms  \nEnabled:   1\n",
			wantBlocks: [][]Field{
				{{"Repo ID", "rhel-7-server-rpms"}, {"Enabled", "1"}},
			},
		},
		{
			name: "splits on first colon only",
			raw:  "Repo URL:  https://cdn.redhat.com/content/dist\n",
			wantBlocks: [][]Field{
				{{"Repo URL", "https://cdn.redhat.com/content/dist"}},
			},
		},
		{
			name: "blank lines separate blocks",
			raw:  "A: 1\nB: 2\n\n\n\nA: 3\nB: 4\n\n",
			wantBlocks: [][]Field{
				{{"A", "1"}, {"B", "2"}},
				{{"A", "3"}, {"B", "4"}},
			},
		},
		{
			name:    "repeated leading label starts a new block",
			raw:     "A: 1\nB: 2\nA: 3\nB: 4\n",
			leading: "A",
			wantBlocks: [][]Field{
				{{"A", "1"}, {"B", "2"}},
				{{"A", "3"}, {"B", "4"}},
			},
		},
		{
			name: "repeated label without leading rule stays in block",
			raw:  "A: 1\nA: 3\n",
			wantBlocks: [][]Field{
				{{"A", "1"}, {"A", "3"}},
			},
		},
		{
			name: "indented continuation lines join the previous value",
			raw:  "Provides: Red Hat Enterprise Linux Server\n          Red Hat Software Collections\nSKU: RH0001\n",
			wantBlocks: [][]Field{
				{{"Provides", "Red Hat Enterprise Linux Server, Red Hat Software Collections"}, {"SKU", "RH0001"}},
			},
		},
		{
			name: "continuation of an empty value",
			raw:  "Provides:\n   EPEL\n",
			wantBlocks: [][]Field{
				{{"Provides", "EPEL"}},
			},
		},
		{
			name: "banners and titles are ignored",
			raw: "+-------------------------------------------+\n" +
				"   Consumed Subscriptions\n" +
				"+-------------------------------------------+\n" +
				"A: 1\n",
			wantBlocks: [][]Field{
				{{"A", "1"}},
			},
		},
		{
			name: "unindented line without delimiter rejects only its block",
			raw:  "A: 1\ngarbage line\nB: 2\n\nA: 3\n",
			wantBlocks: [][]Field{
				{{"A", "3"}},
			},
			wantErrs: 1,
		},
		{
			name:       "no subscriptions message",
			raw:        "No consumed subscription pools were found.\n",
			wantBlocks: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, errs := Scan(tt.raw, tt.leading)
			assert.Len(t, errs, tt.wantErrs)

			require.Len(t, recs, len(tt.wantBlocks))
			for i, want := range tt.wantBlocks {
				assert.Equal(t, want, recs[i].Fields, "block %d", i)
			}
		})
	}
}

func TestScan_IndexAndLine(t *testing.T) {
	raw := "A: 1\n\nbroken\nA: 2\nnot a field\n\nA: 3\n"
	recs, errs := Scan(raw, "A")

	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].Index)
	assert.Equal(t, 1, recs[0].Line)
	assert.Equal(t, 2, recs[1].Index)
	assert.Equal(t, 7, recs[1].Line)

	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Record)
	assert.Equal(t, 4, errs[0].Line)
	assert.Contains(t, errs[0].Reason, "not a field")
}

func TestScanReader_LongLines(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	recs, errs, err := ScanReader(strings.NewReader("A: "+long+"\n"), "")
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Fields[0].Value, len(long))
}

func TestRecord_Get(t *testing.T) {
	r := Record{Fields: []Field{{"A", "1"}, {"A", "2"}, {"B", ""}}}

	v, ok := r.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = r.Get("B")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = r.Get("C")
	assert.False(t, ok)
}
