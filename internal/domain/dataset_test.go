package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset_FullName(t *testing.T) {
	newDataset := func() Dataset {
		return Dataset{ProjectID: "acme", DatasetName: "sales", TableName: "orders"}
	}

	// Must work on a plain value, including non-addressable ones such as
	// function results.
	assert.Equal(t, "acme.sales.orders", newDataset().FullName())

	ds := newDataset()
	assert.Equal(t, "acme.sales.orders", (&ds).FullName())
}

func TestCreateDatasetRequest_Validate(t *testing.T) {
	valid := CreateDatasetRequest{ProjectID: "acme", DatasetName: "sales", TableName: "orders"}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*CreateDatasetRequest){
		"missing project":    func(r *CreateDatasetRequest) { r.ProjectID = "" },
		"missing dataset":    func(r *CreateDatasetRequest) { r.DatasetName = "" },
		"missing table":      func(r *CreateDatasetRequest) { r.TableName = "" },
		"negative row limit": func(r *CreateDatasetRequest) { r.RowLimit = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			req := valid
			mutate(&req)
			var ve *ValidationError
			require.ErrorAs(t, req.Validate(), &ve)
		})
	}
}
