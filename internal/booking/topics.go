package booking

const TopicCheckout = "booking.checkout"

// Partition key = user id, so one user's checkout events stay ordered.
func PartitionKey(userID string) []byte { return []byte(userID) }
