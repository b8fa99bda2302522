package domain

// Reconcile reduces a ticker's full signal history to its current alert
// set: the most recent OPEN (either side), plus the most recent matching
// CLOSE strictly after it. The result has 0, 1, or 2 alerts and replaces
// all prior alerts for the ticker wholesale. Reconcile is idempotent over
// unchanged input.
//
// When both sides opened on the same date, the long side wins.
func Reconcile(events []SignalEvent) []Alert {
	lastLong, okLong := lastOfKind(events, SignalLongOpen)
	lastShort, okShort := lastOfKind(events, SignalShortOpen)

	var open SignalEvent
	switch {
	case !okLong && !okShort:
		return nil
	case okLong && okShort && lastShort.Date.After(lastLong.Date):
		open = lastShort
	case okLong:
		open = lastLong
	default:
		open = lastShort
	}

	alerts := []Alert{{
		TickerID:   open.TickerID,
		Kind:       open.Kind,
		SignalDate: open.Date,
		Price:      open.Price,
	}}

	closeKind := CloseKind(open.Kind.Side())
	var closeEv SignalEvent
	found := false
	for _, ev := range events {
		if ev.Kind != closeKind || !ev.Date.After(open.Date) {
			continue
		}
		if !found || ev.Date.After(closeEv.Date) {
			closeEv = ev
			found = true
		}
	}
	if found {
		alerts = append(alerts, Alert{
			TickerID:   closeEv.TickerID,
			Kind:       closeEv.Kind,
			SignalDate: closeEv.Date,
			Price:      closeEv.Price,
		})
	}

	return alerts
}

func lastOfKind(events []SignalEvent, kind SignalKind) (SignalEvent, bool) {
	var last SignalEvent
	found := false
	for _, ev := range events {
		if ev.Kind != kind {
			continue
		}
		if !found || ev.Date.After(last.Date) {
			last = ev
			found = true
		}
	}
	return last, found
}
