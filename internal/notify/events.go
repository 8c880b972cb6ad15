package notify

import (
	"fmt"

	"github.com/jenyyy4/gigflow/db"
)

// Виды событий, имена совпадают с теми, что слушает фронтенд
const (
	KindNewBid      = "newBid"
	KindHired       = "hired"
	KindBidRejected = "bidRejected"
	KindGigUpdated  = "gigUpdated"
	KindNewGig      = "newGig"
)

// Broadcast как получатель означает всех подключённых клиентов
const Broadcast = 0

// Event — одно уведомление для одного получателя
type Event struct {
	Recipient int
	Kind      string
	Payload   interface{}
}

// Publisher доставляет события; доставка best-effort и не влияет
// на уже закоммиченное изменение состояния
type Publisher interface {
	Publish(e Event)
}

type newBidPayload struct {
	Bid     *db.BidDetails `json:"bid"`
	Message string         `json:"message"`
}

type hiredPayload struct {
	Gig     *db.GigDetails `json:"gig"`
	Message string         `json:"message"`
}

type bidRejectedPayload struct {
	GigID    int    `json:"gigId"`
	GigTitle string `json:"gigTitle"`
	Message  string `json:"message"`
}

// BidSubmitted — уведомление владельцу заказа о новом предложении
func BidSubmitted(bid *db.BidDetails, gig *db.Gig) []Event {
	return []Event{{
		Recipient: gig.OwnerID,
		Kind:      KindNewBid,
		Payload: newBidPayload{
			Bid:     bid,
			Message: fmt.Sprintf("New bid on %q", gig.Title),
		},
	}}
}

// GigPosted — broadcast о новом заказе
func GigPosted(gig *db.GigDetails) []Event {
	return []Event{{
		Recipient: Broadcast,
		Kind:      KindNewGig,
		Payload:   gig,
	}}
}

// FreelancerHired считает полный набор уведомлений после найма:
// победителю, каждому проигравшему и broadcast об изменении заказа.
// Чистая функция от уже зафиксированного состояния.
func FreelancerHired(hired *db.BidDetails, gig *db.GigDetails, losers []db.BidDetails) []Event {
	events := []Event{{
		Recipient: hired.FreelancerID,
		Kind:      KindHired,
		Payload: hiredPayload{
			Gig:     gig,
			Message: fmt.Sprintf("Congratulations! You have been hired for %q!", gig.Title),
		},
	}}
	for _, loser := range losers {
		if loser.ID == hired.ID {
			continue
		}
		events = append(events, Event{
			Recipient: loser.FreelancerID,
			Kind:      KindBidRejected,
			Payload: bidRejectedPayload{
				GigID:    gig.ID,
				GigTitle: gig.Title,
				Message:  fmt.Sprintf("Your bid for %q was not selected", gig.Title),
			},
		})
	}
	events = append(events, Event{
		Recipient: Broadcast,
		Kind:      KindGigUpdated,
		Payload:   gig,
	})
	return events
}
