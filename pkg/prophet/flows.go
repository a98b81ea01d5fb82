package prophet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
)

// Flow is a single flow record as returned by the search API.
type Flow struct {
	ID         *string          `json:"id,omitempty"          yaml:"id,omitempty"`
	DocType    *string          `json:"doc_type,omitempty"    yaml:"doc_type,omitempty"`
	Timestamp  *int64           `json:"@timestamp,omitempty"  yaml:"timestamp,omitempty"`
	Key        *string          `json:"key,omitempty"         yaml:"key,omitempty"`
	SessionKey *string          `json:"session_key,omitempty" yaml:"session_key,omitempty"`
	AppName    *string          `json:"app_name,omitempty"    yaml:"app_name,omitempty"`
	Src        *DirectionFields `json:"src,omitempty"         yaml:"src,omitempty"`
	Dst        *DirectionFields `json:"dst,omitempty"         yaml:"dst,omitempty"`
	IP         *IP              `json:"ip,omitempty"          yaml:"ip,omitempty"`
	Transport  *Transport       `json:"transport,omitempty"   yaml:"transport,omitempty"`
	Path       []Path           `json:"path,omitempty"        yaml:"path,omitempty"`
	Threat     *Threat          `json:"threat,omitempty"      yaml:"threat,omitempty"`
	Beacon     *BeaconData      `json:"beacon,omitempty"      yaml:"beacon,omitempty"`
	Meta       *Meta            `json:"meta,omitempty"        yaml:"meta,omitempty"`
	ICMP       *ICMPProto       `json:"icmp,omitempty"        yaml:"icmp,omitempty"`
	TCP        *TCPProto        `json:"tcp,omitempty"         yaml:"tcp,omitempty"`
	NAT        *NATProto        `json:"nat,omitempty"         yaml:"nat,omitempty"`
	MPLS       *MPLSProto       `json:"mpls,omitempty"        yaml:"mpls,omitempty"`
	Encap      *Encap           `json:"encap,omitempty"       yaml:"encap,omitempty"`
	Suricata   *SuricataFields  `json:"suricata,omitempty"    yaml:"suricata,omitempty"`
	Stats      *SessionMetrics  `json:"stats,omitempty"       yaml:"stats,omitempty"`
	Metric     *SimpleMetrics   `json:"metric,omitempty"      yaml:"metric,omitempty"`
}

// TimestampTime converts the millisecond @timestamp to a time.Time.
func (f *Flow) TimestampTime() (time.Time, bool) {
	if f.Timestamp == nil {
		return time.Time{}, false
	}

	return time.UnixMilli(*f.Timestamp), true
}

// Bytes prefers metric.total_bytes, then stats.volume.bytes.total.
func (f *Flow) Bytes() float64 {
	if f.Metric != nil && f.Metric.TotalBytes != nil {
		return *f.Metric.TotalBytes
	}

	if f.Stats != nil && f.Stats.Volume != nil && f.Stats.Volume.Bytes != nil && f.Stats.Volume.Bytes.Total != nil {
		return *f.Stats.Volume.Bytes.Total
	}

	return 0
}

// Packets returns stats.volume.packets.total, or 0.
func (f *Flow) Packets() float64 {
	if f.Stats != nil && f.Stats.Volume != nil && f.Stats.Volume.Packets != nil && f.Stats.Volume.Packets.Total != nil {
		return *f.Stats.Volume.Packets.Total
	}

	return 0
}

// SrcIP returns src.ip, or "" when absent.
func (f *Flow) SrcIP() string { return directionIP(f.Src) }

// DstIP returns dst.ip, or "" when absent.
func (f *Flow) DstIP() string { return directionIP(f.Dst) }

// SrcPort returns src.port, or 0 when absent.
func (f *Flow) SrcPort() int { return directionPort(f.Src) }

// DstPort returns dst.port, or 0 when absent.
func (f *Flow) DstPort() int { return directionPort(f.Dst) }

// Protocol returns transport.proto, e.g. "tcp".
func (f *Flow) Protocol() string {
	if f.Transport == nil || f.Transport.Proto == nil {
		return ""
	}

	return *f.Transport.Proto
}

// InstanceID returns the owning instance, meta.customer_id.
func (f *Flow) InstanceID() string {
	if f.Meta == nil || f.Meta.CustomerID == nil {
		return ""
	}

	return *f.Meta.CustomerID
}

// String returns a one-line summary, "src:port -> dst:port bytes=n".
func (f *Flow) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d bytes=%s",
		f.SrcIP(), f.SrcPort(), f.DstIP(), f.DstPort(),
		strconv.FormatFloat(f.Bytes(), 'f', -1, 64))
}

func directionIP(d *DirectionFields) string {
	if d == nil || d.IP == nil {
		return ""
	}

	return *d.IP
}

func directionPort(d *DirectionFields) int {
	if d == nil || d.Port == nil {
		return 0
	}

	return *d.Port
}

// FlowPage is one page of search results for a single instance.
type FlowPage struct {
	Flows       []Flow  `json:"flows"               yaml:"flows"`
	Found       int     `json:"found"               yaml:"found"`
	Total       int     `json:"total"               yaml:"total"`
	Returned    int     `json:"returned"            yaml:"returned"`
	CurrentPage int     `json:"current_page"        yaml:"current_page"`
	PageCount   int     `json:"pages"               yaml:"pages"`
	HasMore     bool    `json:"more_data_available" yaml:"more_data_available"`
	Took        float64 `json:"took"                yaml:"took"`
	InstanceID  string  `json:"-"                   yaml:"instance_id"`
}

// UnmarshalJSON fills defaults for missing keys: returned is the number of
// flows and pages is 1.
func (p *FlowPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Flows       []Flow  `json:"flows"`
		Found       int     `json:"found"`
		Total       int     `json:"total"`
		Returned    *int    `json:"returned"`
		CurrentPage int     `json:"current_page"`
		PageCount   *int    `json:"pages"`
		HasMore     bool    `json:"more_data_available"`
		Took        float64 `json:"took"`
	}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	*p = FlowPage{
		Flows:       raw.Flows,
		Found:       raw.Found,
		Total:       raw.Total,
		Returned:    len(raw.Flows),
		CurrentPage: raw.CurrentPage,
		PageCount:   1,
		HasMore:     raw.HasMore,
		Took:        raw.Took,
	}

	if p.Flows == nil {
		p.Flows = []Flow{}
	}

	if raw.Returned != nil {
		p.Returned = *raw.Returned
	}

	if raw.PageCount != nil {
		p.PageCount = *raw.PageCount
	}

	return nil
}

// SearchRequest is the body of a flow search. Optional fields are omitted
// when unset so the server applies its own defaults.
type SearchRequest struct {
	InstanceIDs []string   `json:"instance_ids"`
	Module      string     `json:"module"`
	Size        int        `json:"size"`
	Page        int        `json:"page"`
	Sentence    string     `json:"sentence,omitempty"`
	Start       TimeFilter `json:"start,omitempty"`
	End         TimeFilter `json:"end,omitempty"`
	Sort        []Sort     `json:"sort,omitempty"`
	Fields      []string   `json:"fields,omitempty"`
}

// FlowQuery describes a search. Query and Builder are alternatives; Builder
// wins when both are set. An empty query matches everything.
type FlowQuery struct {
	Instances []string
	Query     string
	Builder   *Query
	Start     TimeFilter
	End       TimeFilter
	Sort      []Sort
	Fields    []string
	// Size is the page size, 1 to 25000. Zero selects 100.
	Size int
}

// SearchRequest validates q and returns the request for page 0.
func (q *FlowQuery) SearchRequest() (*SearchRequest, error) {
	if len(q.Instances) == 0 || q.Instances[0] == "" {
		return nil, &ValidationError{Message: "no instances given", Field: "instance_ids", Err: ErrInstancesRequired}
	}

	size := q.Size
	if size == 0 {
		size = constants.DefaultFlowPageSize
	}

	if size < 1 || size > constants.MaxFlowPageSize {
		return nil, &ValidationError{
			Message: fmt.Sprintf("size %d not in [1, %d]", size, constants.MaxFlowPageSize),
			Field:   "size",
			Err:     ErrPageSizeOutOfRange,
		}
	}

	sentence := q.Query
	if q.Builder != nil {
		built, err := q.Builder.Build()
		if err != nil {
			return nil, err
		}

		sentence = built
	}

	for _, f := range []TimeFilter{q.Start, q.End} {
		if f == nil {
			continue
		}

		err := f.Validate()
		if err != nil {
			return nil, err
		}
	}

	for _, s := range q.Sort {
		err := s.Validate()
		if err != nil {
			return nil, err
		}
	}

	return &SearchRequest{
		InstanceIDs: append([]string(nil), q.Instances...),
		Module:      constants.SearchModuleFlows,
		Size:        size,
		Sentence:    sentence,
		Start:       q.Start,
		End:         q.End,
		Sort:        append([]Sort(nil), q.Sort...),
		Fields:      append([]string(nil), q.Fields...),
	}, nil
}
