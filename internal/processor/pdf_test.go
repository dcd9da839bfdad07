package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pdfcrawl/internal/processor"
)

func TestRegistryRejectsUnknownName(t *testing.T) {
	_, err := processor.New("no-such-processor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-processor")
}

func TestRegistryNamesIncludeDefault(t *testing.T) {
	assert.Contains(t, processor.Names(), processor.DefaultName)
}

func TestProcessNonPDFScoresZero(t *testing.T) {
	p, err := processor.New(processor.DefaultName, []string{"learning"})
	require.NoError(t, err)

	relevancy, metadata, err := p.Process([]byte("plain text"), "text/plain")
	require.NoError(t, err)
	assert.Zero(t, relevancy)
	assert.Equal(t, 0.0, metadata[processor.MetaRelevancy])
}

func TestProcessMalformedPDFReturnsError(t *testing.T) {
	p, err := processor.New(processor.DefaultName, []string{"learning"})
	require.NoError(t, err)

	_, _, err = p.Process([]byte("%PDF-1.4 but not really a pdf"), "application/pdf")
	require.Error(t, err)
}

func TestProcessEmptyBodyReturnsError(t *testing.T) {
	p, err := processor.New(processor.DefaultName, nil)
	require.NoError(t, err)

	_, _, err = p.Process(nil, "application/pdf")
	require.Error(t, err)
}
