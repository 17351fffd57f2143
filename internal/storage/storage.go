package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PendingJob is one async job submitted by an earlier CLI invocation.
type PendingJob struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	SubmittedAt int64  `json:"submitted_at"`
}

// GetAppDataDir returns the application data directory
func GetAppDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	appDataDir := filepath.Join(homeDir, ".arango-cli")
	if err := os.MkdirAll(appDataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app data directory: %w", err)
	}

	return appDataDir, nil
}

// getJobsFilePath returns the path to the pending jobs file
func getJobsFilePath() (string, error) {
	appDataDir, err := GetAppDataDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(appDataDir, "jobs.json"), nil
}

// SaveJob records a submitted async job so later invocations can find it
func SaveJob(id, description string) error {
	jobs, err := LoadJobs()
	if err != nil {
		return err
	}

	jobs = append(jobs, PendingJob{
		ID:          id,
		Description: description,
		SubmittedAt: time.Now().Unix(),
	})

	return writeJobs(jobs)
}

// LoadJobs returns the recorded async jobs, oldest first
func LoadJobs() ([]PendingJob, error) {
	filePath, err := getJobsFilePath()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
		return nil, nil
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var jobs []PendingJob
	if err := json.Unmarshal(fileData, &jobs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jobs file: %w", err)
	}

	return jobs, nil
}

// RemoveJob drops a job id from the record, if present
func RemoveJob(id string) error {
	jobs, err := LoadJobs()
	if err != nil {
		return err
	}

	kept := jobs[:0]
	for _, job := range jobs {
		if job.ID != id {
			kept = append(kept, job)
		}
	}

	return writeJobs(kept)
}

func writeJobs(jobs []PendingJob) error {
	filePath, err := getJobsFilePath()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}

	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write jobs file: %w", err)
	}

	return nil
}
