package models

import (
	apimodels "github.com/ai-field-tools/iris-api/pkg/api/types/models"
	"github.com/ai-field-tools/iris-api/pkg/domain/model"
	"github.com/ai-field-tools/iris-api/pkg/utils/pointer"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

func ComposeDetail(m model.Metadata) apimodels.Detail {
	d := apimodels.Detail{
		Name:      m.Name,
		Version:   m.Version,
		Algorithm: m.Algorithm,
		Classes:   m.Classes,
		Features:  m.Features,
		LoadedAt:  rfctime.New(m.LoadedAt),
	}
	if m.TrainedAt != nil {
		d.TrainedAt = pointer.Ref(rfctime.New(*m.TrainedAt))
	}
	return d
}
