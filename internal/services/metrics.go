package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// messagesSent counts messages persisted by MessageService.Create.
	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messagely_messages_sent_total",
		Help: "Total number of messages sent.",
	})

	// messagesRead counts successful read receipts.
	messagesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messagely_messages_read_total",
		Help: "Total number of messages marked read.",
	})

	// logins counts login attempts by result ("success" or "failure").
	logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messagely_logins_total",
		Help: "Total number of login attempts by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(messagesSent, messagesRead, logins)
}
