// Package snapshot persists the embedding index as a wholesale-replaced snapshot.
package snapshot

import "github.com/wandervn/placesense/internal/domain"

// recordDTO is the persisted snapshot entry shape:
// {id, slug, name, description, embedding: [float,...]}.
type recordDTO struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
}

func toDTO(r domain.Record) recordDTO {
	return recordDTO{
		ID:          r.EntityID(),
		Slug:        r.Slug(),
		Name:        r.DisplayName(),
		Description: r.SourceText(),
		Embedding:   r.Vector(),
	}
}

func toDTOs(records []domain.Record) []recordDTO {
	dtos := make([]recordDTO, len(records))
	for i, r := range records {
		dtos[i] = toDTO(r)
	}
	return dtos
}

// fromDTOs converts persisted entries to domain records, dropping malformed
// ones (no id or no vector) instead of trusting shape at use time.
func fromDTOs(dtos []recordDTO) []domain.Record {
	records := make([]domain.Record, 0, len(dtos))
	for _, d := range dtos {
		if d.ID == "" || len(d.Embedding) == 0 {
			continue
		}
		records = append(records, domain.NewRecord(d.ID, d.Slug, d.Name, d.Description, d.Embedding))
	}
	return records
}
