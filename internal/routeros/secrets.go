package routeros

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const secretPath = "/ppp/secret"

// SecretRepo is the typed CRUD facade over /ppp/secret.
type SecretRepo struct {
	c *Client
}

func NewSecretRepo(c *Client) *SecretRepo {
	return &SecretRepo{c: c}
}

func (r *SecretRepo) List(ctx context.Context) ([]Credential, error) {
	records, err := r.c.list(ctx, secretPath)
	if err != nil {
		return nil, err
	}
	creds := make([]Credential, 0, len(records))
	for _, raw := range records {
		var cred Credential
		if err := decodeRecord(raw, &cred); err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Get resolves a secret by id. The direct by-id endpoint is unreliable for
// ids containing special characters, so a miss falls back to scanning the
// full listing before reporting NotFoundError.
func (r *SecretRepo) Get(ctx context.Context, id string) (*Credential, error) {
	raw, err := r.c.record(ctx, secretPath+"/"+url.PathEscape(id))
	if err == nil && raw != nil {
		var cred Credential
		if err := decodeRecord(raw, &cred); err != nil {
			return nil, err
		}
		if cred.ID != "" {
			return &cred, nil
		}
	}

	creds, listErr := r.List(ctx)
	if listErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, listErr
	}
	for i := range creds {
		if creds[i].ID == id {
			return &creds[i], nil
		}
	}
	return nil, &NotFoundError{Resource: "ppp secret", ID: id}
}

func (r *SecretRepo) Create(ctx context.Context, cred Credential) (*Credential, error) {
	attrs := map[string]interface{}{
		"name":     cred.Name,
		"password": cred.Password,
		"service":  cred.Service,
	}
	if cred.Profile != "" {
		attrs["profile"] = cred.Profile
	}
	if cred.RemoteAddress != "" {
		attrs["remote-address"] = cred.RemoteAddress
	}
	if cred.Comment != "" {
		attrs["comment"] = cred.Comment
	}

	res, err := r.c.Request(ctx, http.MethodPut, secretPath, attrs)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PUT "+secretPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var created Credential
	if err := decodeRecord(raw, &created); err != nil {
		return nil, err
	}
	zap.L().Info("ppp secret created",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
		zap.String("service", created.Service),
	)
	return &created, nil
}

func (r *SecretRepo) Update(ctx context.Context, id string, patch map[string]interface{}) (*Credential, error) {
	res, err := r.c.Request(ctx, http.MethodPatch, secretPath+"/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	raw, err := toRecord(res, "PATCH "+secretPath)
	if err != nil || raw == nil {
		return nil, err
	}
	var updated Credential
	if err := decodeRecord(raw, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *SecretRepo) Delete(ctx context.Context, id string) error {
	_, err := r.c.Request(ctx, http.MethodDelete, secretPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	zap.L().Info("ppp secret deleted", zap.String("id", id))
	return nil
}
