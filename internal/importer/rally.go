package importer

import (
	"fmt"

	"chatkanban/internal/storage"
)

// RallyPlan groups message positions into one rally.
type RallyPlan struct {
	Index    int
	Messages []int
}

// SplitRallies walks roles in order and opens a new rally whenever none is
// open or the role is user. Indices run 0..k-1 without gaps.
func SplitRallies(roles []storage.Role) []RallyPlan {
	var plans []RallyPlan
	for i, role := range roles {
		if len(plans) == 0 || role == storage.RoleUser {
			plans = append(plans, RallyPlan{Index: len(plans)})
		}
		last := &plans[len(plans)-1]
		last.Messages = append(last.Messages, i)
	}
	return plans
}

// TopicID returns the topic id for a captured thread.
func TopicID(threadID string) string {
	return "topic_" + threadID
}

// RallyID returns the id of the rally at index within a thread.
func RallyID(threadID string, index int) string {
	return fmt.Sprintf("rally_%s_%d", threadID, index)
}
