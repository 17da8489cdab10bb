package routeros

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const profilePath = "/ppp/profile"

// ProfileRepo is the typed CRUD facade over /ppp/profile. Create and Update
// take the full attribute map because profile bootstrap writes a fixed set
// of tunneling options, not just the fields the ServiceProfile struct reads.
type ProfileRepo struct {
	c *Client
}

func NewProfileRepo(c *Client) *ProfileRepo {
	return &ProfileRepo{c: c}
}

func (r *ProfileRepo) List(ctx context.Context) ([]ServiceProfile, error) {
	records, err := r.c.list(ctx, profilePath)
	if err != nil {
		return nil, err
	}
	profiles := make([]ServiceProfile, 0, len(records))
	for _, raw := range records {
		var profile ServiceProfile
		if err := decodeRecord(raw, &profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (r *ProfileRepo) Get(ctx context.Context, id string) (*ServiceProfile, error) {
	raw, err := r.c.record(ctx, profilePath+"/"+url.PathEscape(id))
	if err == nil && raw != nil {
		var profile ServiceProfile
		if err := decodeRecord(raw, &profile); err != nil {
			return nil, err
		}
		if profile.ID != "" {
			return &profile, nil
		}
	}

	profiles, listErr := r.List(ctx)
	if listErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, listErr
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, &NotFoundError{Resource: "ppp profile", ID: id}
}

func (r *ProfileRepo) Create(ctx context.Context, attrs map[string]interface{}) (*ServiceProfile, error) {
	res, err := r.c.Request(ctx, http.MethodPut, profilePath, attrs)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PUT "+profilePath)
	if err != nil || raw == nil {
		return nil, err
	}
	var created ServiceProfile
	if err := decodeRecord(raw, &created); err != nil {
		return nil, err
	}
	zap.L().Info("ppp profile created",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
	)
	return &created, nil
}

func (r *ProfileRepo) Update(ctx context.Context, id string, attrs map[string]interface{}) (*ServiceProfile, error) {
	res, err := r.c.Request(ctx, http.MethodPatch, profilePath+"/"+url.PathEscape(id), attrs)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PATCH "+profilePath)
	if err != nil || raw == nil {
		return nil, err
	}
	var updated ServiceProfile
	if err := decodeRecord(raw, &updated); err != nil {
		return nil, err
	}
	zap.L().Info("ppp profile updated", zap.String("id", id))
	return &updated, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.Request(ctx, http.MethodDelete, profilePath+"/"+url.PathEscape(id), nil)
	return err
}
