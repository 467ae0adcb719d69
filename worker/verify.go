package main

import (
	"fmt"

	"md5brute/internal/bruteforce"
	"md5brute/internal/messages"
)

func validateJob(job *messages.JobMsg, strict bool) error {
	if err := messages.Validate(job); err != nil {
		return err
	}
	if job.Charset != bruteforce.Charset {
		return fmt.Errorf("invalid charset")
	}
	if strict {
		if err := bruteforce.ValidateTarget(job.TargetHash); err != nil {
			return err
		}
	}
	return nil
}
