package sv2

import "testing"

func TestSendWorkFutureTemplateOrdering(t *testing.T) {
	c := NewClient(1)
	if ok := SendWork(c, 7, fakeTemplate{}, true); !ok {
		t.Fatalf("SendWork should report success")
	}

	msgs := c.DrainOutbound()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages for a future template, got %d", len(msgs))
	}
	nt, ok := msgs[0].(NewTemplateMsg)
	if !ok {
		t.Fatalf("expected first message to be NewTemplateMsg, got %T", msgs[0])
	}
	if nt.TemplateID != 7 || !nt.FutureTemplate {
		t.Fatalf("unexpected NewTemplateMsg contents: %+v", nt)
	}
	sph, ok := msgs[1].(SetNewPrevHashMsg)
	if !ok {
		t.Fatalf("expected second message to be SetNewPrevHashMsg, got %T", msgs[1])
	}
	if sph.TemplateID != 7 {
		t.Fatalf("unexpected SetNewPrevHashMsg template id: %d", sph.TemplateID)
	}
}

func TestSendWorkNonFutureTemplateOmitsPrevHash(t *testing.T) {
	c := NewClient(1)
	SendWork(c, 3, fakeTemplate{}, false)

	msgs := c.DrainOutbound()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message for a non-future template, got %d", len(msgs))
	}
	if _, ok := msgs[0].(NewTemplateMsg); !ok {
		t.Fatalf("expected NewTemplateMsg, got %T", msgs[0])
	}
}
