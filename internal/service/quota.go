package service

// CheckQuota refuses a batch of incoming bytes when used+incoming would
// exceed capacity. It is a pre-flight check over the whole batch.
func CheckQuota(used, incoming, capacity int64) error {
	if incoming < 0 || used+incoming > capacity {
		return &QuotaError{Used: used, Incoming: incoming, Capacity: capacity}
	}
	return nil
}
