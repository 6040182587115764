package rabbitmq

// Ключи маршрутизации уведомлений.
const (
	RoutingPasswordReset         = "password_reset"
	RoutingSubscriptionActivated = "subscription_activated"
	RoutingSubscriptionExpiring  = "subscription_expiring"
)

// QueueConfig связка очереди и ключа маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые читает сервис отправки писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.password_reset", RoutingKey: RoutingPasswordReset},
		{QueueName: "notifications.subscription_activated", RoutingKey: RoutingSubscriptionActivated},
		{QueueName: "notifications.subscription_expiring", RoutingKey: RoutingSubscriptionExpiring},
	}
}

// QueueFor возвращает имя очереди для ключа маршрутизации.
func QueueFor(routingKey string) (string, bool) {
	for _, q := range GetNotificationQueues() {
		if q.RoutingKey == routingKey {
			return q.QueueName, true
		}
	}
	return "", false
}
