package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	kpglogin "github.com/ai-field-tools/iris-api/pkg/db/postgres/login"
	kpgpred "github.com/ai-field-tools/iris-api/pkg/db/postgres/prediction"
	kpgreset "github.com/ai-field-tools/iris-api/pkg/db/postgres/reset"
	kpgschema "github.com/ai-field-tools/iris-api/pkg/db/postgres/schema"
	kpgtoken "github.com/ai-field-tools/iris-api/pkg/db/postgres/token"
	kpguser "github.com/ai-field-tools/iris-api/pkg/db/postgres/user"
	xe "github.com/ai-field-tools/iris-api/pkg/errors"
)

type irisDBPostgres struct {
	pool        *pgxpool.Pool
	wrapped     kpool.Pool
	users       kdb.UserInterface
	tokens      kdb.TokenInterface
	resets      kdb.ResetInterface
	logins      kdb.LoginInterface
	predictions kdb.PredictionInterface
	schema      kdb.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (kdb.Database, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kdb.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &irisDBPostgres{
		pool:        pool,
		wrapped:     p,
		users:       kpguser.New(p),
		tokens:      kpgtoken.New(p),
		resets:      kpgreset.New(p),
		logins:      kpglogin.New(p),
		predictions: kpgpred.New(p),
		schema:      schema,
	}, nil
}

func (d *irisDBPostgres) Users() kdb.UserInterface {
	return d.users
}

func (d *irisDBPostgres) Tokens() kdb.TokenInterface {
	return d.tokens
}

func (d *irisDBPostgres) Resets() kdb.ResetInterface {
	return d.resets
}

func (d *irisDBPostgres) Logins() kdb.LoginInterface {
	return d.logins
}

func (d *irisDBPostgres) Predictions() kdb.PredictionInterface {
	return d.predictions
}

func (d *irisDBPostgres) Schema() kdb.SchemaInterface {
	return d.schema
}

func (d *irisDBPostgres) Ping(ctx context.Context) error {
	return d.wrapped.Ping(ctx)
}

func (d *irisDBPostgres) Close() error {
	d.pool.Close()
	return nil
}
