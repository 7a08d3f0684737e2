package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	kprof "github.com/ai-field-tools/iris-api/cmd/iris/config/profiles"
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	apimodels "github.com/ai-field-tools/iris-api/pkg/api/types/models"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	"github.com/ai-field-tools/iris-api/pkg/utils"
)

type IrisClient interface {
	// Signin exchanges username and password for tokens.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// - string: password
	//
	// Returns
	//
	// - apiauth.LoginResponse: tokens and the signed-in user
	//
	// - error
	Signin(ctx context.Context, username string, password string) (apiauth.LoginResponse, error)

	// Predict classifies one measurement record.
	//
	// Args
	//
	// - context.Context
	//
	// - apipredictions.Measurements: measurements to be classified
	//
	// Returns
	//
	// - apipredictions.Detail: the classification outcome
	//
	// - error
	Predict(ctx context.Context, m apipredictions.Measurements) (apipredictions.Detail, error)

	// PredictBatch classifies measurement records at once, keeping order.
	//
	// Args
	//
	// - context.Context
	//
	// - []apipredictions.Measurements: records to be classified
	//
	// Returns
	//
	// - []apipredictions.Detail: outcomes, in the order of the input
	//
	// - error
	PredictBatch(ctx context.Context, ms []apipredictions.Measurements) ([]apipredictions.Detail, error)

	// GetModel fetches metadata of the loaded model.
	//
	// Args
	//
	// - context.Context
	//
	// Returns
	//
	// - apimodels.Detail: metadata of the model serving predictions
	//
	// - error
	GetModel(ctx context.Context) (apimodels.Detail, error)
}

type client struct {
	httpclient *http.Client
	api        string
	bearer     string
}

// create new iris client for IrisProfile
//
// # Args
//
// - *kprof.IrisProfile
//
// # Return
//
// - IrisClient: created client. When the profile carries tokens,
// requests are sent with the access token as bearer.
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.IrisProfile) (IrisClient, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
		bearer:     prof.Auth.AccessToken,
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

func (c *client) authorize(req *http.Request) {
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
}

func (c *client) get(ctx context.Context, path ...string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath(path...), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	return c.httpclient.Do(req)
}

func (c *client) post(ctx context.Context, body any, path ...string) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.apipath(path...), bytes.NewReader(buf),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.httpclient.Do(req)
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
