package common

import "fmt"

func RedisKeyPrize(prizeID string) string {
	return fmt.Sprintf("prize:%s", prizeID)
}

func RedisKeyAvailability() string {
	return "availability:state"
}
