package sv2

// SendWork composes and enqueues the NewTemplate message for a freshly
// assigned template id, followed by a SetNewPrevHash message when the
// template activates a new tip. Order matters: NewTemplate always precedes
// SetNewPrevHash for the same id.
//
// The bool return has no failure path today (Enqueue is infallible) but is
// kept so a future backpressure-aware Connman can report a send failure
// without changing this signature.
func SendWork(client *Client, templateID uint64, tmpl Template, futureTemplate bool) bool {
	header := tmpl.BlockHeader()

	client.Enqueue(NewTemplateMsg{
		Header:                 header,
		CoinbaseTx:             tmpl.CoinbaseTx(),
		CoinbaseMerklePath:     tmpl.CoinbaseMerklePath(),
		WitnessCommitmentIndex: tmpl.WitnessCommitmentIndex(),
		TemplateID:             templateID,
		FutureTemplate:         futureTemplate,
	})

	if futureTemplate {
		client.Enqueue(SetNewPrevHashMsg{
			Header:     header,
			TemplateID: templateID,
		})
	}

	return true
}
