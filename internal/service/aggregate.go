package service

import (
	"fmt"

	"github.com/pagepilot/action-server-go/internal/model"
)

// Summary is the per-dispatch outcome tally. Attempted always equals
// Successful + Failed once a dispatch returns.
type Summary struct {
	Attempted  int `json:"totalSessions"`
	Successful int `json:"successCount"`
	Failed     int `json:"failCount"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d successful, %d failed", s.Successful, s.Failed)
}

// Summarize tallies the attempts of one dispatch.
func Summarize(attempts []model.ActionAttempt) Summary {
	summary := Summary{Attempted: len(attempts)}
	for _, a := range attempts {
		if a.Status == model.AttemptSuccess {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}
