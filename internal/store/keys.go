package store

// Record keys in the key-value store.
const (
	keyProfile           = "profile"
	keyChecklists        = "checklists"
	keyTaskHistory       = "task_history"
	keyLaundryGeneration = "laundry_generation"
	keyLastVisit         = "last_visit"
	keyLastNotification  = "last_notification"
	keyLastGeneration    = "last_generation"
	keyPushSubscriptions = "push_subscriptions"
)
