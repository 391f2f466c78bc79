package telemetry

import (
	"context"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/san-kum/epicycle/internal/vehicle"
)

const Measurement = "epicycle_state"

// Timestamp converts simulation time (Unix seconds) to wall time.
func Timestamp(t float64) time.Time {
	sec, frac := math.Modf(t)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// SamplePoint renders one composite state as an InfluxDB point tagged with
// the run name.
func SamplePoint(run string, st *vehicle.State, out *vehicle.Output) *influxdb2_write.Point {
	sys := &st.System
	p := influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("run", run).
		AddField("n", int64(st.Clock.N)).
		AddField("rx", sys.R[0]).AddField("ry", sys.R[1]).AddField("rz", sys.R[2]).
		AddField("qw", sys.Q[0]).AddField("qx", sys.Q[1]).AddField("qy", sys.Q[2]).AddField("qz", sys.Q[3]).
		AddField("vx", sys.V[0]).AddField("vy", sys.V[1]).AddField("vz", sys.V[2]).
		AddField("wx", sys.W[0]).AddField("wy", sys.W[1]).AddField("wz", sys.W[2]).
		SetTime(Timestamp(st.Clock.T))
	if out != nil {
		p.AddField("mass", out.Mass)
	}
	return p
}

// LineProtocol renders a sample in InfluxDB line protocol.
func LineProtocol(run string, st *vehicle.State, out *vehicle.Output) string {
	return influxdb2_write.PointToLineProtocol(SamplePoint(run, st, out), time.Nanosecond)
}

// InfluxSink writes every observed state to an InfluxDB bucket through the
// blocking write API. Write failures are logged, not returned.
type InfluxSink struct {
	client influxdb2.Client
	writer influxdb2_api.WriteAPIBlocking
	run    string
	log    zerolog.Logger
}

func NewInfluxSink(url, token, org, bucket, run string, log zerolog.Logger) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token, influxdb2.DefaultOptions())
	return &InfluxSink{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
		run:    run,
		log:    log.With().Str("component", "influx").Str("bucket", bucket).Logger(),
	}
}

// Ping reports whether the server is reachable.
func (s *InfluxSink) Ping(ctx context.Context) bool {
	ok, err := s.client.Ping(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("InfluxDB not reachable")
	}
	return ok && err == nil
}

func (s *InfluxSink) OnStep(st *vehicle.State, out *vehicle.Output) {
	if err := s.writer.WritePoint(context.Background(), SamplePoint(s.run, st, out)); err != nil {
		s.log.Error().Err(err).Uint64("n", st.Clock.N).Msg("Error sending sample to InfluxDB")
	}
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
