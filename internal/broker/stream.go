// Package broker hands live AI response streams from the goroutine producing
// them to the consumer that serves them.
package broker

type openRequest[TID comparable, TChunk any] struct {
	ID     TID
	Stream chan TChunk
}

type attachRequest[TID comparable, TChunk any] struct {
	ID    TID
	Reply chan chan TChunk
}

// StreamBroker routes an in-flight stream of chunks, keyed by session, from
// its producer to the first consumer that attaches. Later consumers block
// until the producer closes the stream and then receive a closed reply, their
// cue to read the finished transcript from the database instead.
//
// The producer is typically a goroutine spawned by an action handler that is
// relaying model output chunk by chunk; the first consumer is the SSE handler
// streaming it to the player. Attaches after the first usually mean the player
// reconnected mid-stream.
type StreamBroker[TID comparable, TChunk any] struct {
	done     chan struct{}
	opens    chan openRequest[TID, TChunk]
	closes   chan TID
	attaches chan attachRequest[TID, TChunk]
}

func NewStreamBroker[TID comparable, TChunk any]() *StreamBroker[TID, TChunk] {
	return &StreamBroker[TID, TChunk]{
		done:     make(chan struct{}),
		opens:    make(chan openRequest[TID, TChunk]),
		closes:   make(chan TID),
		attaches: make(chan attachRequest[TID, TChunk]),
	}
}

// Run serves open, close, and attach requests until Shutdown. It blocks, so
// call it in a goroutine.
func (b *StreamBroker[TID, TChunk]) Run() {
	streams := map[TID]chan TChunk{}
	waiting := map[TID][]chan chan TChunk{}
	for {
		select {
		case <-b.done:
			return

		case attach := <-b.attaches:
			stream := streams[attach.ID]
			if stream == nil {
				// No producer: closed reply tells the consumer to read the database.
				close(attach.Reply)
				break
			}
			if waiting[attach.ID] == nil {
				// The first consumer gets the live stream.
				waiting[attach.ID] = []chan chan TChunk{attach.Reply}
				attach.Reply <- stream
			} else {
				// Everyone else waits for the producer to finish.
				waiting[attach.ID] = append(waiting[attach.ID], attach.Reply)
			}

		case open := <-b.opens:
			streams[open.ID] = open.Stream

		case id := <-b.closes:
			delete(streams, id)
			delete(waiting, id)
		}
	}
}

func (b *StreamBroker[TID, TChunk]) Shutdown() {
	close(b.done)
}

// Open registers a producer's stream under id. The stream is handed to the
// first consumer that attaches.
func (b *StreamBroker[TID, TChunk]) Open(id TID, stream chan TChunk) {
	b.opens <- openRequest[TID, TChunk]{ID: id, Stream: stream}
}

// Close removes the stream under id. Use an unbuffered stream so the producer
// blocks until a consumer is draining it, and give the producer a timeout so a
// vanished consumer cannot block it forever.
func (b *StreamBroker[TID, TChunk]) Close(id TID) {
	b.closes <- id
}

// Attach asks for the stream under id. The reply channel yields the live
// stream for the first consumer; for everyone else it closes once the
// producer is done, or immediately when no producer is registered.
func (b *StreamBroker[TID, TChunk]) Attach(id TID) chan chan TChunk {
	reply := make(chan chan TChunk, 1)
	b.attaches <- attachRequest[TID, TChunk]{ID: id, Reply: reply}
	return reply
}
