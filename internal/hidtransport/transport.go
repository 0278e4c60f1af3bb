package hidtransport

import (
	"time"
)

// DefaultChannelTimeout is the spec.md section 4.5 inactivity window
// ("timeout (approx 500 ms) between fragments") after which an
// in-flight reassembly is aborted.
const DefaultChannelTimeout = 500 * time.Millisecond

// InitProtocolVersion, InitMajor, InitMinor, InitBuild, and
// InitCapFlags are the fixed values this device reports in the
// U2FHID_INIT reply (spec.md section 4.5).
const (
	InitProtocolVersion byte = 2
	InitMajor           byte = 1
	InitMinor           byte = 0
	InitBuild           byte = 0
	InitCapFlags        byte = 0x00
)

// HandleContext carries per-request metadata into a CommandHandler,
// including a Keepalive callback the handler invokes periodically
// while blocked on user presence, per spec.md section 5.
type HandleContext struct {
	CID       uint32
	Keepalive func()
}

// CommandHandler dispatches one fully-reassembled HID message (an
// MSG, CBOR, PING, or WINK payload) to the CTAP1/CTAP2 processors and
// returns the response payload to fragment back to the host.
type CommandHandler interface {
	Handle(hctx HandleContext, cmd byte, payload []byte) (respPayload []byte, err error)
}

// Transport implements the channel allocation, framing, and
// reassembly state machine of spec.md section 4.5. It owns no
// cryptographic state; CommandHandler does the protocol work.
type Transport struct {
	Handler CommandHandler
	// Send transmits an out-of-band report immediately — used only
	// for KEEPALIVE reports emitted mid-request, since the final
	// reply is returned from ProcessReport instead.
	Send    func(report []byte) error
	Timeout time.Duration

	channels map[uint32]*channel
	nextCID  uint32
}

// NewTransport returns a Transport ready to process reports.
func NewTransport(handler CommandHandler, send func([]byte) error) *Transport {
	return &Transport{
		Handler:  handler,
		Send:     send,
		Timeout:  DefaultChannelTimeout,
		channels: make(map[uint32]*channel),
		nextCID:  1,
	}
}

// allocateCID returns a fresh, non-reserved, not-currently-assigned
// CID, recycling the numbering space as channels expire. This departs
// from the reference firmware's constant CID per spec.md section 9's
// open question.
func (t *Transport) allocateCID() uint32 {
	for {
		cid := t.nextCID
		t.nextCID++
		if t.nextCID == BroadcastCID || t.nextCID == 0 {
			t.nextCID = 1
		}
		if cid == 0 || cid == BroadcastCID {
			continue
		}
		if _, busy := t.channels[cid]; busy {
			continue
		}
		return cid
	}
}

// ExpireChannels drops any channel whose in-flight reassembly has
// been idle longer than Timeout, returning one HID ERROR report per
// expired channel (ErrMsgTimeout).
func (t *Transport) ExpireChannels(now time.Time) [][]byte {
	var reports [][]byte
	for cid, ch := range t.channels {
		if ch.isExpired(now, t.Timeout) {
			delete(t.channels, cid)
			reports = append(reports, t.errorReport(cid, ErrMsgTimeout))
		}
	}
	return reports
}

func (t *Transport) errorReport(cid uint32, code byte) []byte {
	reports, _ := FragmentReply(cid, CmdError, []byte{code})
	return reports[0]
}

// ProcessReport feeds one 64-byte report into the transport. It
// returns zero or more reply reports: zero while a message is still
// being reassembled, or the fragmented response once a message
// completes (or an HID ERROR report on a framing failure).
func (t *Transport) ProcessReport(report []byte, now time.Time) ([][]byte, error) {
	if len(report) != ReportSize {
		return nil, errShortReport
	}

	if isInitPacket(report) {
		return t.handleInitPacket(report, now)
	}
	return t.handleContPacket(report, now)
}

func (t *Transport) handleInitPacket(report []byte, now time.Time) ([][]byte, error) {
	pkt, err := parseInit(report)
	if err != nil {
		return nil, err
	}

	if pkt.cid == BroadcastCID {
		return t.handleBroadcastInit(pkt, now)
	}

	ch, known := t.channels[pkt.cid]
	if !known {
		return [][]byte{t.errorReport(pkt.cid, ErrInvalidChannel)}, nil
	}
	// Spec-mandated reset: an INIT on an active channel aborts the
	// prior transaction and restarts reassembly.
	ch.beginMessage(now, pkt.cmd, pkt.bcnt, pkt.data)
	if ch.phase == phaseIdle {
		return t.dispatch(pkt.cid, ch.cmd, ch.buf)
	}
	return nil, nil
}

func (t *Transport) handleBroadcastInit(pkt initPacket, now time.Time) ([][]byte, error) {
	if len(pkt.data) < 8 {
		return [][]byte{t.errorReport(BroadcastCID, ErrInvalidCmd)}, nil
	}
	nonce := pkt.data[:8]

	newCID := t.allocateCID()
	t.channels[newCID] = newChannel(newCID)
	t.channels[newCID].lastActivity = now

	resp := make([]byte, 0, 17)
	resp = append(resp, nonce...)
	cidBytes := make([]byte, 4)
	putBEUint32(cidBytes, newCID)
	resp = append(resp, cidBytes...)
	resp = append(resp, InitProtocolVersion, InitMajor, InitMinor, InitBuild, InitCapFlags)

	reports, err := FragmentReply(BroadcastCID, CmdInit, resp)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (t *Transport) handleContPacket(report []byte, now time.Time) ([][]byte, error) {
	pkt, err := parseCont(report)
	if err != nil {
		return nil, err
	}

	ch, known := t.channels[pkt.cid]
	if !known {
		return [][]byte{t.errorReport(pkt.cid, ErrInvalidChannel)}, nil
	}

	complete, err := ch.appendCont(now, pkt.seq, pkt.data)
	if err != nil {
		var code byte = ErrOther
		switch err {
		case errInvalidSeq:
			code = ErrInvalidSeq
		case errInvalidChannel:
			code = ErrChannelBusy
		}
		return [][]byte{t.errorReport(pkt.cid, code)}, nil
	}
	if !complete {
		return nil, nil
	}
	return t.dispatch(pkt.cid, ch.cmd, ch.buf)
}

func (t *Transport) dispatch(cid uint32, cmd byte, payload []byte) ([][]byte, error) {
	hctx := HandleContext{
		CID: cid,
		Keepalive: func() {
			if t.Send == nil {
				return
			}
			kaReports, _ := FragmentReply(cid, CmdKeepalive, []byte{KeepaliveStatusUPNeeded})
			for _, r := range kaReports {
				_ = t.Send(r)
			}
		},
	}

	resp, err := t.Handler.Handle(hctx, cmd, payload)
	if err != nil {
		return [][]byte{t.errorReport(cid, ErrOther)}, nil
	}
	return FragmentReply(cid, cmd, resp)
}
