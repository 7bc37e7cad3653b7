package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/acronymdata/complaints-etl/internal/pipeline"
)

func resetFlags() {
	flagMethod = "file"
	flagStart = ""
	flagEnd = ""
	flagTable = ""
}

func TestBuildJob_Defaults(t *testing.T) {
	defer resetFlags()
	resetFlags()

	job, err := buildJob("consumer_complaints")

	assert.NoError(t, err)
	assert.Equal(t, pipeline.MethodFile, job.Method)
	assert.Equal(t, "consumer_complaints", job.Table)

	// Default window is yesterday through today.
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -1), job.Start, time.Minute)
	assert.WithinDuration(t, time.Now().UTC(), job.End, time.Minute)
}

func TestBuildJob_APIWithDates(t *testing.T) {
	defer resetFlags()
	resetFlags()
	flagMethod = "api"
	flagStart = "2021-04-01"
	flagEnd = "2021-04-02"

	job, err := buildJob("consumer_complaints")

	assert.NoError(t, err)
	assert.Equal(t, pipeline.MethodAPI, job.Method)
	assert.Equal(t, "2021-04-01", job.Start.Format("2006-01-02"))
	assert.Equal(t, "2021-04-02", job.End.Format("2006-01-02"))
}

func TestBuildJob_InvalidMethod(t *testing.T) {
	defer resetFlags()
	resetFlags()
	flagMethod = "csv"

	_, err := buildJob("consumer_complaints")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --method")
}

func TestBuildJob_MalformedDate(t *testing.T) {
	defer resetFlags()
	resetFlags()
	flagMethod = "api"
	flagStart = "04/01/2021"

	_, err := buildJob("consumer_complaints")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --start")
}

func TestBuildJob_StartAfterEnd(t *testing.T) {
	defer resetFlags()
	resetFlags()
	flagMethod = "api"
	flagStart = "2021-04-02"
	flagEnd = "2021-04-01"

	_, err := buildJob("consumer_complaints")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "is after")
}
