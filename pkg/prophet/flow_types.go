package prophet

// Nested components of a flow record. Every field is optional; absent keys
// decode to nil and unknown keys are ignored.

// GeoLatLon is a coordinate pair.
type GeoLatLon struct {
	Lat *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
}

// GeoEntry is the GeoIP enrichment of an endpoint.
type GeoEntry struct {
	ContinentName   *string    `json:"continent_name,omitempty"   yaml:"continent_name,omitempty"`
	CountryISOCode  *string    `json:"country_iso_code,omitempty" yaml:"country_iso_code,omitempty"`
	CountryName     *string    `json:"country_name,omitempty"     yaml:"country_name,omitempty"`
	CityName        *string    `json:"city_name,omitempty"        yaml:"city_name,omitempty"`
	TimeZone        *string    `json:"time_zone,omitempty"        yaml:"time_zone,omitempty"`
	LocationNetwork *string    `json:"location_network,omitempty" yaml:"location_network,omitempty"`
	ASN             *int64     `json:"asn,omitempty"              yaml:"asn,omitempty"`
	Org             *string    `json:"org,omitempty"              yaml:"org,omitempty"`
	ASNetwork       *string    `json:"as_network,omitempty"       yaml:"as_network,omitempty"`
	AccuracyRadius  *int       `json:"accuracy_radius,omitempty"  yaml:"accuracy_radius,omitempty"`
	Location        *GeoLatLon `json:"location,omitempty"         yaml:"location,omitempty"`
}

// ClassificationContext describes who an endpoint belongs to.
type ClassificationContext struct {
	Organization *string   `json:"organization,omitempty" yaml:"organization,omitempty"`
	Industry     *string   `json:"industry,omitempty"     yaml:"industry,omitempty"`
	FQDN         *string   `json:"fqdn,omitempty"         yaml:"fqdn,omitempty"`
	ID           *int64    `json:"id,omitempty"           yaml:"id,omitempty"`
	Method       *string   `json:"method,omitempty"       yaml:"method,omitempty"`
	Vector       []float64 `json:"vector,omitempty"       yaml:"vector,omitempty"`
}

// DirectionFields is one side (src or dst) of a flow.
type DirectionFields struct {
	IP          *string                `json:"ip,omitempty"           yaml:"ip,omitempty"`
	Port        *int                   `json:"port,omitempty"         yaml:"port,omitempty"`
	AddressType *string                `json:"address_type,omitempty" yaml:"address_type,omitempty"`
	Geo         *GeoEntry              `json:"geo,omitempty"          yaml:"geo,omitempty"`
	Ctx         *ClassificationContext `json:"ctx,omitempty"          yaml:"ctx,omitempty"`
}

type IP struct {
	Version *int `json:"version,omitempty" yaml:"version,omitempty"`
}

type Transport struct {
	Proto    *string `json:"proto,omitempty"     yaml:"proto,omitempty"`
	ProtoNum *int    `json:"proto_num,omitempty" yaml:"proto_num,omitempty"`
}

// Sensor is the exporter that observed a flow.
type Sensor struct {
	ID        *string `json:"id,omitempty"        yaml:"id,omitempty"`
	Type      *string `json:"type,omitempty"      yaml:"type,omitempty"`
	Name      *string `json:"name,omitempty"      yaml:"name,omitempty"`
	Hostname  *string `json:"hostname,omitempty"  yaml:"hostname,omitempty"`
	Interface *string `json:"interface,omitempty" yaml:"interface,omitempty"`
}

type Acl struct {
	EventID  *int64  `json:"event_id,omitempty"  yaml:"event_id,omitempty"`
	EventMap *string `json:"event_map,omitempty" yaml:"event_map,omitempty"`
	Action   *string `json:"action,omitempty"    yaml:"action,omitempty"`
}

// Path is one observation point along the route of a flow.
type Path struct {
	Sensor             *Sensor `json:"sensor,omitempty"               yaml:"sensor,omitempty"`
	Acl                *Acl    `json:"acl,omitempty"                  yaml:"acl,omitempty"`
	IngressVRFID       *int64  `json:"ingress_vrf_id,omitempty"       yaml:"ingress_vrf_id,omitempty"`
	EgressVRFID        *int64  `json:"egress_vrf_id,omitempty"        yaml:"egress_vrf_id,omitempty"`
	IPNextHop          *string `json:"ip_next_hop,omitempty"          yaml:"ip_next_hop,omitempty"`
	IPBGPNextHop       *string `json:"ip_bgp_next_hop,omitempty"      yaml:"ip_bgp_next_hop,omitempty"`
	SrcTOS             *int    `json:"src_tos,omitempty"              yaml:"src_tos,omitempty"`
	DstTOS             *int    `json:"dst_tos,omitempty"              yaml:"dst_tos,omitempty"`
	SrcAS              *int64  `json:"src_as,omitempty"               yaml:"src_as,omitempty"`
	DstAS              *int64  `json:"dst_as,omitempty"               yaml:"dst_as,omitempty"`
	SrcNet             *int    `json:"src_net,omitempty"              yaml:"src_net,omitempty"`
	DstNet             *int    `json:"dst_net,omitempty"              yaml:"dst_net,omitempty"`
	SrcVLAN            *int    `json:"src_vlan,omitempty"             yaml:"src_vlan,omitempty"`
	DstVLAN            *int    `json:"dst_vlan,omitempty"             yaml:"dst_vlan,omitempty"`
	SrcMAC             *string `json:"src_mac,omitempty"              yaml:"src_mac,omitempty"`
	DstMAC             *string `json:"dst_mac,omitempty"              yaml:"dst_mac,omitempty"`
	SrcSNMP            *int64  `json:"src_snmp,omitempty"             yaml:"src_snmp,omitempty"`
	DstSNMP            *int64  `json:"dst_snmp,omitempty"             yaml:"dst_snmp,omitempty"`
	ForwardingStatusID *int    `json:"forwarding_status_id,omitempty" yaml:"forwarding_status_id,omitempty"`
	ForwardingStatus   *string `json:"forwarding_status,omitempty"    yaml:"forwarding_status,omitempty"`
	ForwardingReason   *string `json:"forwarding_reason,omitempty"    yaml:"forwarding_reason,omitempty"`
}

// Meta carries ingest bookkeeping. IngestTime is epoch milliseconds.
type Meta struct {
	IngestTime *int64   `json:"@ingest_time,omitempty" yaml:"ingest_time,omitempty"`
	CustomerID *string  `json:"customer_id,omitempty"  yaml:"customer_id,omitempty"`
	Tags       []string `json:"tags,omitempty"         yaml:"tags,omitempty"`
	FlowTypes  []string `json:"flow_types,omitempty"   yaml:"flow_types,omitempty"`
	TimeOfDay  *int     `json:"time_of_day,omitempty"  yaml:"time_of_day,omitempty"`
	DayOfWeek  *int     `json:"day_of_week,omitempty"  yaml:"day_of_week,omitempty"`
	Flipped    *bool    `json:"flipped,omitempty"      yaml:"flipped,omitempty"`
}

// Threat is threat-intelligence enrichment.
type Threat struct {
	Indicator       *string  `json:"indicator,omitempty"       yaml:"indicator,omitempty"`
	Type            *string  `json:"type,omitempty"            yaml:"type,omitempty"`
	Trajectory      *string  `json:"trajectory,omitempty"      yaml:"trajectory,omitempty"`
	IP              *string  `json:"ip,omitempty"              yaml:"ip,omitempty"`
	Mask            *int     `json:"mask,omitempty"            yaml:"mask,omitempty"`
	Posture         []string `json:"posture,omitempty"         yaml:"posture,omitempty"`
	Tags            []string `json:"tags,omitempty"            yaml:"tags,omitempty"`
	Feeds           []string `json:"feeds,omitempty"           yaml:"feeds,omitempty"`
	Countermeasures []string `json:"countermeasures,omitempty" yaml:"countermeasures,omitempty"`
}

// ScaleAnalysis is a beacon score at packet or session granularity.
type ScaleAnalysis struct {
	BeaconScore          *float64 `json:"beacon_score,omitempty"          yaml:"beacon_score,omitempty"`
	TimingRegularity     *float64 `json:"timing_regularity,omitempty"     yaml:"timing_regularity,omitempty"`
	TimingPredictability *float64 `json:"timing_predictability,omitempty" yaml:"timing_predictability,omitempty"`
	TimingUniformity     *float64 `json:"timing_uniformity,omitempty"     yaml:"timing_uniformity,omitempty"`
	PatternSignificance  *float64 `json:"pattern_significance,omitempty"  yaml:"pattern_significance,omitempty"`
	IsBeacon             *bool    `json:"is_beacon,omitempty"             yaml:"is_beacon,omitempty"`
	SampleCount          *int64   `json:"sample_count,omitempty"          yaml:"sample_count,omitempty"`
	AnalysisType         *string  `json:"analysis_type,omitempty"         yaml:"analysis_type,omitempty"`
}

type BeaconInterval struct {
	ValueMS *int64 `json:"value_ms,omitempty" yaml:"value_ms,omitempty"`
}

type BeaconMeta struct {
	DetectionEngine *string `json:"detection_engine,omitempty" yaml:"detection_engine,omitempty"`
	AnalysisVersion *string `json:"analysis_version,omitempty" yaml:"analysis_version,omitempty"`
}

// BeaconData is the result of beaconing detection.
type BeaconData struct {
	Confidence         *float64        `json:"confidence,omitempty"          yaml:"confidence,omitempty"`
	FirstSeen          *string         `json:"first_seen,omitempty"          yaml:"first_seen,omitempty"`
	LastSeen           *string         `json:"last_seen,omitempty"           yaml:"last_seen,omitempty"`
	PacketLevel        *ScaleAnalysis  `json:"packet_level,omitempty"        yaml:"packet_level,omitempty"`
	SessionLevel       *ScaleAnalysis  `json:"session_level,omitempty"       yaml:"session_level,omitempty"`
	PrimaryEvidence    *string         `json:"primary_evidence,omitempty"    yaml:"primary_evidence,omitempty"`
	HasSessions        *bool           `json:"has_sessions,omitempty"        yaml:"has_sessions,omitempty"`
	WeightedConfidence *float64        `json:"weighted_confidence,omitempty" yaml:"weighted_confidence,omitempty"`
	ConsensusScore     *float64        `json:"consensus_score,omitempty"     yaml:"consensus_score,omitempty"`
	Interval           *BeaconInterval `json:"interval,omitempty"            yaml:"interval,omitempty"`
	Meta               *BeaconMeta     `json:"meta,omitempty"                yaml:"meta,omitempty"`
}

// StatisticalMoments holds running sums from which mean, variance and skew
// can be derived.
type StatisticalMoments struct {
	Count      *int64   `json:"count,omitempty"       yaml:"count,omitempty"`
	Sum        *float64 `json:"sum,omitempty"         yaml:"sum,omitempty"`
	SumSquares *float64 `json:"sum_squares,omitempty" yaml:"sum_squares,omitempty"`
	SumCubes   *float64 `json:"sum_cubes,omitempty"   yaml:"sum_cubes,omitempty"`
}

// Mean returns Sum/Count, or 0 when either is missing.
func (m *StatisticalMoments) Mean() float64 {
	if m == nil || m.Count == nil || m.Sum == nil || *m.Count == 0 {
		return 0
	}

	return *m.Sum / float64(*m.Count)
}

type TCPProto struct {
	Flags        []string            `json:"flags,omitempty"         yaml:"flags,omitempty"`
	WindowLength *StatisticalMoments `json:"window_length,omitempty" yaml:"window_length,omitempty"`
}

type ICMPProto struct {
	Type    *int    `json:"type,omitempty"     yaml:"type,omitempty"`
	TypeMap *string `json:"type_map,omitempty" yaml:"type_map,omitempty"`
	Code    *int    `json:"code,omitempty"     yaml:"code,omitempty"`
}

type NATProto struct {
	Event    *int    `json:"event,omitempty"     yaml:"event,omitempty"`
	EventMap *string `json:"event_map,omitempty" yaml:"event_map,omitempty"`
	XDstIP   *string `json:"xdst_ip,omitempty"   yaml:"xdst_ip,omitempty"`
	XDstPort *int    `json:"xdst_port,omitempty" yaml:"xdst_port,omitempty"`
	XSrcIP   *string `json:"xsrc_ip,omitempty"   yaml:"xsrc_ip,omitempty"`
	XSrcPort *int    `json:"xsrc_port,omitempty" yaml:"xsrc_port,omitempty"`
}

// MPLSProto is the MPLS label stack; labels arrive as "1_label".."6_label".
type MPLSProto struct {
	TopLabelIP        *string `json:"top_label_ip,omitempty"         yaml:"top_label_ip,omitempty"`
	TopLabelType      *int    `json:"top_label_type,omitempty"       yaml:"top_label_type,omitempty"`
	TopLabelPrefixLen *int    `json:"top_label_prefix_len,omitempty" yaml:"top_label_prefix_len,omitempty"`
	Count             *int    `json:"count,omitempty"                yaml:"count,omitempty"`
	Label1            *int64  `json:"1_label,omitempty"              yaml:"label_1,omitempty"`
	Label2            *int64  `json:"2_label,omitempty"              yaml:"label_2,omitempty"`
	Label3            *int64  `json:"3_label,omitempty"              yaml:"label_3,omitempty"`
	Label4            *int64  `json:"4_label,omitempty"              yaml:"label_4,omitempty"`
	Label5            *int64  `json:"5_label,omitempty"              yaml:"label_5,omitempty"`
	Label6            *int64  `json:"6_label,omitempty"              yaml:"label_6,omitempty"`
	LastTTL           *int    `json:"last_ttl,omitempty"             yaml:"last_ttl,omitempty"`
	LastLabel         *int64  `json:"last_label,omitempty"           yaml:"last_label,omitempty"`
}

// Encap is the outer header of an encapsulated flow.
type Encap struct {
	SrcIP     *string `json:"src_ip,omitempty"      yaml:"src_ip,omitempty"`
	SrcPort   *int    `json:"src_port,omitempty"    yaml:"src_port,omitempty"`
	DstIP     *string `json:"dst_ip,omitempty"      yaml:"dst_ip,omitempty"`
	DstPort   *int    `json:"dst_port,omitempty"    yaml:"dst_port,omitempty"`
	Proto     *int    `json:"proto,omitempty"       yaml:"proto,omitempty"`
	ProtoMap  *string `json:"proto_map,omitempty"   yaml:"proto_map,omitempty"`
	IPv6SrcIP *string `json:"ipv6_src_ip,omitempty" yaml:"ipv6_src_ip,omitempty"`
	IPv6DstIP *string `json:"ipv6_dst_ip,omitempty" yaml:"ipv6_dst_ip,omitempty"`
}

type SuricataFlowEvent struct {
	CommunityID *string `json:"community_id,omitempty" yaml:"community_id,omitempty"`
	EventType   *string `json:"event_type,omitempty"   yaml:"event_type,omitempty"`
	Alerted     *bool   `json:"alerted,omitempty"      yaml:"alerted,omitempty"`
}

// SuricataFields is IDS enrichment.
type SuricataFields struct {
	FlowID     *int64             `json:"flow_id,omitempty"    yaml:"flow_id,omitempty"`
	L7AppMap   *string            `json:"l7_app_map,omitempty" yaml:"l7_app_map,omitempty"`
	EventTypes []string           `json:"event_types,omitempty" yaml:"event_types,omitempty"`
	Flow       *SuricataFlowEvent `json:"flow,omitempty"       yaml:"flow,omitempty"`
}

type DirectionalStats struct {
	Src   *StatisticalMoments `json:"src,omitempty"   yaml:"src,omitempty"`
	Dst   *StatisticalMoments `json:"dst,omitempty"   yaml:"dst,omitempty"`
	Total *float64            `json:"total,omitempty" yaml:"total,omitempty"`
}

type DirectionalValues struct {
	Src   *float64 `json:"src,omitempty"   yaml:"src,omitempty"`
	Dst   *float64 `json:"dst,omitempty"   yaml:"dst,omitempty"`
	Total *float64 `json:"total,omitempty" yaml:"total,omitempty"`
}

type VolumeMetrics struct {
	Bytes   *DirectionalStats  `json:"bytes,omitempty"   yaml:"bytes,omitempty"`
	Packets *DirectionalValues `json:"packets,omitempty" yaml:"packets,omitempty"`
}

type RateMetrics struct {
	BPS *DirectionalValues `json:"bps,omitempty" yaml:"bps,omitempty"`
	PPS *DirectionalValues `json:"pps,omitempty" yaml:"pps,omitempty"`
}

type LatencyMetrics struct {
	Net *StatisticalMoments `json:"net,omitempty" yaml:"net,omitempty"`
	App *StatisticalMoments `json:"app,omitempty" yaml:"app,omitempty"`
}

type RetransMetrics struct {
	Packets *float64 `json:"packets,omitempty" yaml:"packets,omitempty"`
	Bytes   *float64 `json:"bytes,omitempty"   yaml:"bytes,omitempty"`
}

type QualityMetrics struct {
	Retrans   *RetransMetrics `json:"retrans,omitempty"   yaml:"retrans,omitempty"`
	Fragments *float64        `json:"fragments,omitempty" yaml:"fragments,omitempty"`
}

type SessionSizeMetrics struct {
	Packet         *StatisticalMoments `json:"packet,omitempty"          yaml:"packet,omitempty"`
	Frame          *StatisticalMoments `json:"frame,omitempty"           yaml:"frame,omitempty"`
	PayloadEntropy *StatisticalMoments `json:"payload_entropy,omitempty" yaml:"payload_entropy,omitempty"`
}

type InterArrivalMetrics struct {
	MeanGap     *float64 `json:"mean_gap,omitempty"    yaml:"mean_gap,omitempty"`
	Regularity  *float64 `json:"regularity,omitempty"  yaml:"regularity,omitempty"`
	Consistency *float64 `json:"consistency,omitempty" yaml:"consistency,omitempty"`
	Burstiness  *float64 `json:"burstiness,omitempty"  yaml:"burstiness,omitempty"`
	MinGap      *float64 `json:"min_gap,omitempty"     yaml:"min_gap,omitempty"`
	MaxGap      *float64 `json:"max_gap,omitempty"     yaml:"max_gap,omitempty"`
}

type TimingMetrics struct {
	DurationSecs     *StatisticalMoments  `json:"duration_secs,omitempty"      yaml:"duration_secs,omitempty"`
	InterArrivalSecs *InterArrivalMetrics `json:"inter_arrival_secs,omitempty" yaml:"inter_arrival_secs,omitempty"`
}

// SessionMetrics aggregates a session's volume, rate, latency and timing.
type SessionMetrics struct {
	ConnectionCount *int64              `json:"connection_count,omitempty" yaml:"connection_count,omitempty"`
	Volume          *VolumeMetrics      `json:"volume,omitempty"           yaml:"volume,omitempty"`
	Rate            *RateMetrics        `json:"rate,omitempty"             yaml:"rate,omitempty"`
	RTTSecs         *LatencyMetrics     `json:"rtt_secs,omitempty"         yaml:"rtt_secs,omitempty"`
	Quality         *QualityMetrics     `json:"quality,omitempty"          yaml:"quality,omitempty"`
	Size            *SessionSizeMetrics `json:"size,omitempty"             yaml:"size,omitempty"`
	Timing          *TimingMetrics      `json:"timing,omitempty"           yaml:"timing,omitempty"`
}

// SimpleMetrics is the flat byte counter block.
type SimpleMetrics struct {
	SrcBytes   *float64 `json:"src_bytes,omitempty"   yaml:"src_bytes,omitempty"`
	DstBytes   *float64 `json:"dst_bytes,omitempty"   yaml:"dst_bytes,omitempty"`
	TotalBytes *float64 `json:"total_bytes,omitempty" yaml:"total_bytes,omitempty"`
}
