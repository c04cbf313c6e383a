package knowledge

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// MarshalBinary encodes every field of the component, timestamps included.
// It always returns a nil error.
func (c Component) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncString(c.ID)...)
	data = append(data, rezi.EncString(string(c.Kind))...)
	data = append(data, rezi.EncString(c.Name)...)
	data = append(data, rezi.EncString(c.Description)...)
	data = append(data, rezi.EncString(c.Pattern)...)
	data = append(data, rezi.EncString(c.Code)...)
	data = append(data, rezi.EncSliceString(c.PositiveExamples)...)
	data = append(data, rezi.EncSliceString(c.NegativeExamples)...)
	data = append(data, rezi.EncInt(c.UsageCount)...)
	data = append(data, rezi.EncInt(c.SuccessCount)...)
	data = append(data, rezi.EncInt(int(c.LastUsed))...)
	data = append(data, rezi.EncSliceString(c.ComposableWith)...)
	data = append(data, rezi.EncSliceString(c.DerivedFrom)...)

	return data, nil
}

func (c *Component) UnmarshalBinary(data []byte) error {
	var err error
	var n int
	var s string
	var i int

	readString := func(dst *string) error {
		s, n, err = rezi.DecString(data)
		if err != nil {
			return err
		}
		data = data[n:]
		*dst = s
		return nil
	}
	readInt := func(dst *int) error {
		i, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]
		*dst = i
		return nil
	}
	readStrings := func(dst *[]string) error {
		var sl []string
		sl, n, err = rezi.DecSliceString(data)
		if err != nil {
			return err
		}
		data = data[n:]
		*dst = sl
		return nil
	}

	if err = readString(&c.ID); err != nil {
		return err
	}
	var kind string
	if err = readString(&kind); err != nil {
		return err
	}
	c.Kind = ComponentKind(kind)
	if err = readString(&c.Name); err != nil {
		return err
	}
	if err = readString(&c.Description); err != nil {
		return err
	}
	if err = readString(&c.Pattern); err != nil {
		return err
	}
	if err = readString(&c.Code); err != nil {
		return err
	}
	if err = readStrings(&c.PositiveExamples); err != nil {
		return err
	}
	if err = readStrings(&c.NegativeExamples); err != nil {
		return err
	}
	if err = readInt(&c.UsageCount); err != nil {
		return err
	}
	if err = readInt(&c.SuccessCount); err != nil {
		return err
	}
	var last int
	if err = readInt(&last); err != nil {
		return err
	}
	c.LastUsed = int64(last)
	if err = readStrings(&c.ComposableWith); err != nil {
		return err
	}
	if err = readStrings(&c.DerivedFrom); err != nil {
		return err
	}

	return nil
}

// Export serializes the full store, losslessly: every component field, the
// insertion order, and the id counter all survive a round-trip.
func (b *Base) Export() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncInt(b.nextID)...)
	data = append(data, rezi.EncInt(len(b.order))...)
	for _, id := range b.order {
		data = append(data, rezi.EncBinary(*b.components[id])...)
	}

	return data, nil
}

// Import replaces the contents of the base with a previously exported store.
func (b *Base) Import(data []byte) error {
	nextID, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("import: reading id counter: %w", err)
	}
	data = data[n:]

	count, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("import: reading component count: %w", err)
	}
	data = data[n:]

	fresh := NewBase()
	fresh.nextID = nextID
	for i := 0; i < count; i++ {
		var c Component
		n, err = rezi.DecBinary(data, &c)
		if err != nil {
			return fmt.Errorf("import: decoding component %d: %w", i, err)
		}
		data = data[n:]
		fresh.Insert(&c)
	}

	*b = *fresh
	return nil
}
