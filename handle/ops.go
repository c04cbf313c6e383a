package handle

import (
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/samber/lo"

	"github.com/yogthos/matryoshka/lattice"
	"github.com/yogthos/matryoshka/mkerrors"
)

// Handle operations never hand full data back to the caller: they return a
// scalar or the name of a fresh handle holding the rewritten sequence.
// Preview and Sample are the deliberate exceptions.

// Count returns the element count of a handle.
func (r *Registry) Count(name string) (int, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return 0, err
	}
	return len(seq), nil
}

// Sum adds up a named numeric field across the handle's elements. Elements
// without the field, or with a non-numeric one, contribute zero.
func (r *Registry) Sum(name, field string) (float64, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, item := range seq {
		if n, ok := item.Field(field).AsNumber(); ok {
			total += n
		}
	}
	return total, nil
}

var lineAmountRE = regexp.MustCompile(`-?\$?\d[\d,]*(\.\d+)?`)

// SumFromLine extracts the first numeric token (optionally $-prefixed and
// comma-thousanded) from each element's line field and sums them.
func (r *Registry) SumFromLine(name string) (float64, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, item := range seq {
		text := item.Field("line").Text()
		if text == "" {
			text = item.Text()
		}
		run := lineAmountRE.FindString(text)
		if run == "" {
			continue
		}
		run = strings.ReplaceAll(strings.TrimPrefix(run, "$"), ",", "")
		if n, err := strconv.ParseFloat(run, 64); err == nil {
			total += n
		}
	}
	return total, nil
}

// Filter compiles the predicate source with the safe compiler, keeps the
// elements it accepts, and stores them under a new handle.
func (r *Registry) Filter(name, predicateSource string) (string, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return "", err
	}
	pred, err := Compile(predicateSource)
	if err != nil {
		return "", err
	}

	var kept []lattice.Value
	for _, item := range seq {
		got, err := pred(item)
		if err != nil {
			return "", err
		}
		if got.Truthy() {
			kept = append(kept, item)
		}
	}
	return r.Store(kept), nil
}

// Map compiles the expression source and stores the transformed sequence
// under a new handle.
func (r *Registry) Map(name, expressionSource string) (string, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return "", err
	}
	fn, err := Compile(expressionSource)
	if err != nil {
		return "", err
	}

	out := make([]lattice.Value, len(seq))
	for i, item := range seq {
		got, err := fn(item)
		if err != nil {
			return "", err
		}
		out[i] = got
	}
	return r.Store(out), nil
}

// Sort orders the handle's elements by a field and stores the result under a
// new handle. The comparison is numeric when both sides read as numbers,
// lexicographic otherwise; "desc" inverts it. Elements missing the field
// sort last in ascending order, and the sort is stable.
func (r *Registry) Sort(name, field, direction string) (string, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return "", err
	}

	out := make([]lattice.Value, len(seq))
	copy(out, seq)

	desc := strings.EqualFold(direction, "desc")
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return fieldLess(out[j], out[i], field)
		}
		return fieldLess(out[i], out[j], field)
	})
	return r.Store(out), nil
}

func fieldLess(a, b lattice.Value, field string) bool {
	av := fieldOrSelf(a, field)
	bv := fieldOrSelf(b, field)

	if av.IsNull() {
		return false
	}
	if bv.IsNull() {
		return true
	}

	an, aok := av.AsNumber()
	bn, bok := bv.AsNumber()
	if aok && bok {
		return an < bn
	}
	return av.Text() < bv.Text()
}

func fieldOrSelf(v lattice.Value, field string) lattice.Value {
	if field == "" {
		return v
	}
	return v.Field(field)
}

// Preview returns the first n elements as raw data.
func (r *Registry) Preview(name string, n int) ([]lattice.Value, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	if n > len(seq) {
		n = len(seq)
	}
	if n < 0 {
		n = 0
	}
	out := make([]lattice.Value, n)
	copy(out, seq[:n])
	return out, nil
}

// Sample returns n elements drawn without replacement by Fisher–Yates,
// capped at the sequence length. Sampling is the engine's one deliberately
// random operation; SeedSample pins it for reproducibility.
func (r *Registry) Sample(name string, n int) ([]lattice.Value, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	if n > len(seq) {
		n = len(seq)
	}
	if n < 0 {
		n = 0
	}

	shuffled := make([]lattice.Value, len(seq))
	copy(shuffled, seq)
	rng := r.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n], nil
}

// SeedSample fixes the sampling source, so repeated samples replay.
func (r *Registry) SeedSample(seed int64) {
	r.rng = rand.New(rand.NewSource(seed))
}

// Description summarizes a handle without exposing its data.
type Description struct {
	Count    int
	Fields   []string
	FirstFew []string
}

// Describe reports the element count, the union of record fields, and stub
// previews of the first few elements.
func (r *Registry) Describe(name string) (Description, error) {
	seq, err := r.resolve(name)
	if err != nil {
		return Description{}, err
	}

	fieldSet := map[string]bool{}
	for _, item := range seq {
		if item.Kind() == lattice.ValueMap {
			for k := range item.Map() {
				fieldSet[k] = true
			}
		}
	}
	fields := lo.Keys(fieldSet)
	sort.Strings(fields)

	firstFew := make([]string, 0, 3)
	for i := 0; i < len(seq) && i < 3; i++ {
		firstFew = append(firstFew, truncate(seq[i].Text(), previewWidth))
	}

	return Description{Count: len(seq), Fields: fields, FirstFew: firstFew}, nil
}

// DescribeText renders a description as a short indented block for model
// consumption.
func (r *Registry) DescribeText(name string) (string, error) {
	d, err := r.Describe(name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(name + ":\n")
	sb.WriteString("  count: " + strconv.Itoa(d.Count) + "\n")
	sb.WriteString("  fields: " + strings.Join(d.Fields, ", ") + "\n")
	for _, line := range d.FirstFew {
		block := rosed.Edit(line).Wrap(previewWidth).String()
		for _, wrapped := range strings.Split(block, "\n") {
			sb.WriteString("  | " + wrapped + "\n")
		}
	}
	return sb.String(), nil
}

func (r *Registry) resolve(name string) ([]lattice.Value, error) {
	seq, ok := r.handles[name]
	if !ok {
		return nil, mkerrors.New(mkerrors.KindUnbound, "no handle %s", name)
	}
	return seq, nil
}
