package http

import (
	"github.com/vovakirdan/ticketboard-server/internal/core"
	"github.com/vovakirdan/ticketboard-server/internal/proto"
)

func assignmentFromWire(data proto.AssignData) core.TicketAssignment {
	return core.TicketAssignment{
		Number: string(data.Number),
		Desk:   string(data.Desk),
	}
}

func slotsToWire(slots []*core.TicketAssignment) proto.LastFour {
	out := make(proto.LastFour, len(slots))
	for i, slot := range slots {
		if slot == nil {
			continue
		}
		out[i] = &proto.Assignment{
			Number: proto.Identifier(slot.Number),
			Desk:   proto.Identifier(slot.Desk),
		}
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLastFour:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLastFour,
			Data:  slotsToWire(event.Slots),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
