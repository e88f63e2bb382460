// Package ingress subscribes to the inbound MQ topic and decodes Frigate
// event payloads into eventtable.Frame values for the Admission Engine,
// grounded on the teacher's NATS publisher idiom
// (internal/nvr/nats_publisher.go) run in reverse, and its
// tolerant-of-unknown-fields decode style (internal/nvr/event_parser.go).
package ingress

import (
	"encoding/json"
	"log"
	"os"

	"github.com/nats-io/nats.go"

	"github.com/technosupport/fep/internal/eventtable"
)

var logger = log.New(os.Stderr, "[ingress] ", log.LstdFlags)

// wireEvent mirrors Frigate's MQTT event payload (spec.md §6). Only the
// fields FEP cares about are named; anything else present in the message is
// ignored by json.Unmarshal rather than rejected.
type wireEvent struct {
	Type string `json:"type"`
	Before wireDetail `json:"before"`
	After  wireDetail `json:"after"`
}

type wireDetail struct {
	ID             string   `json:"id"`
	Camera         string   `json:"camera"`
	Label          string   `json:"label"`
	SubLabel       string   `json:"sub_label"`
	StartTime      float64  `json:"start_time"`
	FrameTime      float64  `json:"frame_time"`
	CurrentZones   []string `json:"current_zones"`
	Box            []float64 `json:"box"` // [x1,y1,x2,y2], frame-normalized
	HasSnapshot    bool     `json:"has_snapshot"`
	HasClip        bool     `json:"has_clip"`
	Score          *float64 `json:"score"`
	TopScore       *float64 `json:"top_score"`
}

// Decode parses a raw MQ payload into a Frame. Returns an error for any
// message that cannot be meaningfully turned into a frame (spec.md §7
// "Malformed frame"); the caller logs and drops it.
func Decode(payload []byte) (eventtable.Frame, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return eventtable.Frame{}, err
	}

	d := w.After
	if w.Type == "end" && d.ID == "" {
		d = w.Before
	}
	if d.ID == "" || d.Camera == "" || d.Label == "" {
		return eventtable.Frame{}, errMissingFields
	}

	f := eventtable.Frame{
		EventID:     d.ID,
		Type:        frameType(w.Type),
		Camera:      d.Camera,
		Label:       d.Label,
		SubLabel:    d.SubLabel,
		Created:     floatSecondsToTime(d.StartTime),
		LastUpdated: floatSecondsToTime(d.FrameTime),
		Zones:       d.CurrentZones,
		HasSnapshot: d.HasSnapshot,
		HasClip:     d.HasClip,
	}

	if len(d.Box) == 4 {
		f.HasBBox = true
		f.BBoxCenter = eventtable.Point{
			X: (d.Box[0] + d.Box[2]) / 2,
			Y: (d.Box[1] + d.Box[3]) / 2,
		}
	}

	score := d.Score
	if score == nil {
		score = d.TopScore
	}
	if score != nil {
		f.HasScore = true
		f.Score = *score
	}

	return f, nil
}

func frameType(t string) eventtable.FrameType {
	switch t {
	case "new":
		return eventtable.FrameNew
	case "end":
		return eventtable.FrameEnd
	default:
		return eventtable.FrameUpdate
	}
}

// Subscriber wires a NATS subscription to a Dispatch-shaped sink.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	queue   string
	dispatch func(eventtable.Frame)
	sub     *nats.Subscription
}

// NewSubscriber builds a Subscriber. dispatch is called synchronously from
// the NATS client's delivery goroutine for every successfully decoded frame;
// callers pass admission.Engine.Dispatch. queue names the NATS queue group
// to join (config.Config.ListenQueueGroup); an empty queue falls back to a
// plain, non-grouped Subscribe.
func NewSubscriber(conn *nats.Conn, subject, queue string, dispatch func(eventtable.Frame)) *Subscriber {
	return &Subscriber{conn: conn, subject: subject, queue: queue, dispatch: dispatch}
}

// Start begins the subscription. Joining a queue group means that if a
// restart briefly leaves the old and new fepd processes both connected, NATS
// delivers each message to only one of them instead of both dispatching the
// same frame twice. Call Stop to unsubscribe.
func (s *Subscriber) Start() error {
	var sub *nats.Subscription
	var err error
	if s.queue != "" {
		sub, err = s.conn.QueueSubscribe(s.subject, s.queue, s.onMessage)
	} else {
		sub, err = s.conn.Subscribe(s.subject, s.onMessage)
	}
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Subscriber) onMessage(msg *nats.Msg) {
	frame, err := Decode(msg.Data)
	if err != nil {
		logger.Printf("dropping malformed message on %s: %v", s.subject, err)
		return
	}
	s.dispatch(frame)
}

// Stop unsubscribes. Safe to call even if Start was never called.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}
