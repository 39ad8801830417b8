package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_Records(t *testing.T) {
	report := &Report{
		Stores: []StoreResult{
			{Store: Store{ID: "a", Name: "A"}, Records: []ProductRecord{{VariantID: "v-1"}, {VariantID: "v-2"}}},
			{Store: Store{ID: "b", Name: "B"}},
			{Store: Store{ID: "c", Name: "C"}, Records: []ProductRecord{{VariantID: "v-1"}}},
		},
	}

	records := report.Records()

	assert.Equal(t, 3, report.Len())
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"v-1", "v-2", "v-1"}, []string{records[0].VariantID, records[1].VariantID, records[2].VariantID})
}

func TestReport_NilSafe(t *testing.T) {
	var report *Report

	assert.Zero(t, report.Len())
	assert.Empty(t, report.Records())
}
