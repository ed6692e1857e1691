// Package offenders looks up offender summaries in the probation search index
// and applies the limited access offender rules.
package offenders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "approved-premises-workers/internal/common/errors"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// document is the indexed offender as stored in the search index.
type document struct {
	OtherIDs struct {
		Crn        string  `json:"crn"`
		NomsNumber *string `json:"nomsNumber"`
	} `json:"otherIds"`
	FirstName          string `json:"firstName"`
	Surname            string `json:"surname"`
	CurrentRestriction bool   `json:"currentRestriction"`
	CurrentExclusion   bool   `json:"currentExclusion"`
	UserAccess         struct {
		RestrictedTo []string `json:"restrictedTo"`
		ExcludedFrom []string `json:"excludedFrom"`
	} `json:"userAccess"`
}

type getResponse struct {
	Found  bool     `json:"found"`
	Source document `json:"_source"`
}

type Service struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewService(client *elasticsearch.Client, index string, log logger.Logger) *Service {
	return &Service{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "offenders", "index": index}),
	}
}

// GetOffenderByCrn fetches the offender indexed under crn. Users holding the
// LAO qualification pass ignoreLAO and see restricted offenders.
func (s *Service) GetOffenderByCrn(ctx context.Context, crn, username string, ignoreLAO bool) (models.OffenderResult, error) {
	res, err := s.client.Get(s.index, crn, s.client.Get.WithContext(ctx))
	if err != nil {
		return models.OffenderResult{}, apperrors.NewOffenderLookupFailedError(crn, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		s.logger.Info("offender not in index", map[string]interface{}{"crn": crn})
		return models.OffenderResult{Status: models.OffenderNotFound}, nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return models.OffenderResult{}, apperrors.NewOffenderLookupFailedError(crn,
			fmt.Errorf("search returned %s: %s", res.Status(), strings.TrimSpace(string(body))))
	}

	var doc getResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return models.OffenderResult{}, apperrors.NewOffenderLookupFailedError(crn, fmt.Errorf("decode offender: %w", err))
	}
	if !doc.Found {
		return models.OffenderResult{Status: models.OffenderNotFound}, nil
	}

	offender := toSummary(crn, doc.Source)
	if !ignoreLAO && !offender.CanBeAccessedBy(username) {
		s.logger.Warn("limited access offender refused", map[string]interface{}{
			"crn":      crn,
			"username": username,
		})
		return models.OffenderResult{Status: models.OffenderUnauthorised}, nil
	}

	return models.OffenderResult{Status: models.OffenderFound, Offender: offender}, nil
}

func toSummary(crn string, d document) *models.OffenderSummary {
	if d.OtherIDs.Crn != "" {
		crn = d.OtherIDs.Crn
	}
	return &models.OffenderSummary{
		Crn:                crn,
		NomsNumber:         d.OtherIDs.NomsNumber,
		FirstName:          d.FirstName,
		Surname:            d.Surname,
		CurrentRestriction: d.CurrentRestriction,
		CurrentExclusion:   d.CurrentExclusion,
		RestrictedTo:       d.UserAccess.RestrictedTo,
		ExcludedUsers:      d.UserAccess.ExcludedFrom,
	}
}
