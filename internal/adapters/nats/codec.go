package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/hoply/hoply/internal/core/domain"
)

// ContentType is set on every catalog message.
const ContentType = "application/x-protobuf; proto=google.protobuf.Struct"

// EncodeCatalogUpdate serialises u as a protobuf Struct. imported_at
// carries the seconds and nanos of a google.protobuf.Timestamp.
func EncodeCatalogUpdate(u *domain.CatalogUpdate) ([]byte, error) {
	ts := timestamppb.New(u.ImportedAt)
	if err := ts.CheckValid(); err != nil {
		return nil, fmt.Errorf("imported_at: %w", err)
	}
	s, err := structpb.NewStruct(map[string]any{
		"version": u.Version,
		"source":  u.Source,
		"matches": u.Matches,
		"imported_at": map[string]any{
			"seconds": ts.GetSeconds(),
			"nanos":   ts.GetNanos(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeCatalogUpdate is the inverse of EncodeCatalogUpdate.
func DecodeCatalogUpdate(data []byte) (*domain.CatalogUpdate, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal catalog update: %w", err)
	}
	f := s.GetFields()

	u := &domain.CatalogUpdate{
		Version: f["version"].GetStringValue(),
		Source:  f["source"].GetStringValue(),
		Matches: int(f["matches"].GetNumberValue()),
	}
	if u.Version == "" {
		return nil, fmt.Errorf("catalog update without version")
	}
	if ts := f["imported_at"].GetStructValue(); ts != nil {
		tf := ts.GetFields()
		u.ImportedAt = (&timestamppb.Timestamp{
			Seconds: int64(tf["seconds"].GetNumberValue()),
			Nanos:   int32(tf["nanos"].GetNumberValue()),
		}).AsTime()
	} else {
		u.ImportedAt = time.Time{}
	}
	return u, nil
}
