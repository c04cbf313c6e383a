package handle

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/lattice"
)

func record(line string, lineNum int) lattice.Value {
	return lattice.MapOf(map[string]lattice.Value{
		"line":    lattice.StringOf(line),
		"lineNum": lattice.NumberOf(float64(lineNum)),
	})
}

func Test_Registry_Monotonic(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()

	h1 := r.Store([]lattice.Value{lattice.StringOf("a")})
	h2 := r.Store([]lattice.Value{lattice.StringOf("b")})
	assert.Equal("$res1", h1)
	assert.Equal("$res2", h2)

	// deletion retires the identifier for good
	r.Delete(h2)
	h3 := r.Store([]lattice.Value{lattice.StringOf("c")})
	assert.Equal("$res3", h3)
	assert.Nil(r.Get(h2))
	assert.Equal([]string{"$res1", "$res3"}, r.Names())
}

func Test_Registry_Stub(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h := r.Store([]lattice.Value{
		record("ERROR: something went wrong", 3),
		record("ERROR: again", 9),
	})

	stub := r.Stub(h)

	assert.Equal("$res1: Array(2) [ERROR: something went wrong]", stub)
	assert.Equal(stub, r.Stub(h), "stubs are stable for a live handle")

	long := strings.Repeat("x", 200)
	h2 := r.Store([]lattice.Value{lattice.StringOf(long)})
	assert.LessOrEqual(len([]rune(r.Stub(h2))), len(h2)+len(": Array(1) []")+80+1)
}

func Test_Registry_BuildContext(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h1 := r.Store([]lattice.Value{lattice.StringOf("a")})
	h2 := r.Store([]lattice.Value{lattice.StringOf("b"), lattice.StringOf("c")})
	r.SetResults(h2)

	ctx := r.BuildContext()

	lines := strings.Split(strings.TrimRight(ctx, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(r.Stub(h1), lines[0])
	assert.Equal(r.Stub(h2), lines[1])
	assert.Equal("RESULTS: -> $res2", lines[2])
}

func Test_Registry_HandleChain(t *testing.T) {
	// a thousand elements, a count, a filter, then a windowed view
	assert := assert.New(t)

	r := NewRegistry()
	seq := make([]lattice.Value, 1000)
	for i := range seq {
		line := fmt.Sprintf("INFO line %d", i)
		if i%10 == 0 {
			line = fmt.Sprintf("ERROR line %d", i)
		}
		seq[i] = record(line, i+1)
	}

	h1 := r.Store(seq)
	assert.Equal("$res1", h1)

	n, err := r.Count(h1)
	require.NoError(t, err)
	assert.Equal(1000, n)

	h2, err := r.Filter(h1, "item.line.includes('ERROR')")
	require.NoError(t, err)
	assert.Equal("$res2", h2)

	filtered, err := r.Count(h2)
	require.NoError(t, err)
	assert.Equal(100, filtered)

	first10, err := r.Preview(h2, 10)
	require.NoError(t, err)
	require.Len(t, first10, 10)
	for i, item := range first10 {
		assert.True(item.Equal(r.Get(h2)[i]), "preview must be the first elements in order")
	}
}

func Test_Registry_SumOps(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h := r.Store([]lattice.Value{
		lattice.MapOf(map[string]lattice.Value{"score": lattice.NumberOf(1.5), "line": lattice.StringOf("Sales: $1,500,000")}),
		lattice.MapOf(map[string]lattice.Value{"score": lattice.NumberOf(2.5), "line": lattice.StringOf("Sales: $2,300,000")}),
		lattice.MapOf(map[string]lattice.Value{"line": lattice.StringOf("no amount here")}),
	})

	byField, err := r.Sum(h, "score")
	require.NoError(t, err)
	assert.InDelta(4.0, byField, 0.0001)

	byLine, err := r.SumFromLine(h)
	require.NoError(t, err)
	assert.InDelta(3800000.0, byLine, 0.0001)
}

func Test_Registry_Map(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h := r.Store([]lattice.Value{record("a", 1), record("b", 2)})

	h2, err := r.Map(h, "item.lineNum * 10")
	require.NoError(t, err)

	out := r.Get(h2)
	require.Len(t, out, 2)
	assert.Equal(10.0, out[0].Num())
	assert.Equal(20.0, out[1].Num())
}

func Test_Registry_Sort(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h := r.Store([]lattice.Value{record("b", 20), record("a", 3), record("c", 100)})

	asc, err := r.Sort(h, "lineNum", "asc")
	require.NoError(t, err)
	nums := func(name string) []float64 {
		var out []float64
		for _, v := range r.Get(name) {
			out = append(out, v.Field("lineNum").Num())
		}
		return out
	}
	assert.Equal([]float64{3, 20, 100}, nums(asc), "numeric fields sort numerically, not lexically")

	desc, err := r.Sort(h, "lineNum", "desc")
	require.NoError(t, err)
	assert.Equal([]float64{100, 20, 3}, nums(desc))

	lex, err := r.Sort(h, "line", "asc")
	require.NoError(t, err)
	assert.Equal("a", r.Get(lex)[0].Field("line").Str())
}

func Test_Registry_Sample(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	seq := make([]lattice.Value, 50)
	for i := range seq {
		seq[i] = lattice.NumberOf(float64(i))
	}
	h := r.Store(seq)

	r.SeedSample(42)
	first, err := r.Sample(h, 5)
	require.NoError(t, err)
	require.Len(t, first, 5)

	r.SeedSample(42)
	second, err := r.Sample(h, 5)
	require.NoError(t, err)

	for i := range first {
		assert.True(first[i].Equal(second[i]), "seeded sampling must replay")
	}

	capped, err := r.Sample(h, 500)
	require.NoError(t, err)
	assert.Len(capped, 50, "sample caps at the sequence length")
}

func Test_Registry_Describe(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	h := r.Store([]lattice.Value{record("first line", 1), record("second line", 2)})

	d, err := r.Describe(h)
	require.NoError(t, err)

	assert.Equal(2, d.Count)
	assert.Equal([]string{"line", "lineNum"}, d.Fields)
	require.Len(t, d.FirstFew, 2)
	assert.Equal("first line", d.FirstFew[0])

	text, err := r.DescribeText(h)
	require.NoError(t, err)
	assert.Contains(text, "count: 2")
}

func Test_Registry_UnknownHandle(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()

	_, err := r.Count("$res99")
	assert.Error(err)
	assert.Contains(r.Stub("$res99"), "deleted")
}

func Test_Checkpoints(t *testing.T) {
	assert := assert.New(t)

	r := NewRegistry()
	cp := NewCheckpoints(r)

	h1 := r.Store([]lattice.Value{lattice.StringOf("a")})
	r.SetResults(h1)
	cp.Snapshot("turn1")

	h2 := r.Store([]lattice.Value{lattice.StringOf("b")})
	r.SetResults(h2)
	r.Delete(h1)

	require.True(t, cp.Restore("turn1"))

	assert.True(r.Has(h1), "restore reinstalls the snapshotted table")
	assert.False(r.Has(h2))
	assert.Equal(h1, r.Results())

	// same-key snapshots overwrite
	cp.Snapshot("turn1")
	h3 := r.Store([]lattice.Value{lattice.StringOf("c")})
	cp.Snapshot("turn1")
	require.True(t, cp.Restore("turn1"))
	assert.True(r.Has(h3))

	assert.False(cp.Restore("missing"))
}
