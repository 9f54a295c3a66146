package preset

import (
	"sort"

	"envin/internal/schema"
	"envin/internal/standard"
)

func optionalStrings(keys ...string) standard.Dictionary {
	d := make(standard.Dictionary, len(keys))
	for _, k := range keys {
		d[k] = schema.String().Optional()
	}
	return d
}

func with(d standard.Dictionary, extra standard.Dictionary) standard.Dictionary {
	for k, s := range extra {
		d[k] = s
	}
	return d
}

// Vercel system environment variables.
// https://vercel.com/docs/projects/environment-variables/system-environment-variables
func Vercel() Preset {
	return Preset{
		ID: "vercel",
		Server: with(optionalStrings(
			"VERCEL", "CI", "VERCEL_TARGET_ENV", "VERCEL_REGION", "VERCEL_DEPLOYMENT_ID",
			"VERCEL_SKEW_PROTECTION_ENABLED", "VERCEL_AUTOMATION_BYPASS_SECRET",
			"VERCEL_GIT_PROVIDER", "VERCEL_GIT_REPO_SLUG", "VERCEL_GIT_REPO_OWNER", "VERCEL_GIT_REPO_ID",
			"VERCEL_GIT_COMMIT_REF", "VERCEL_GIT_COMMIT_SHA", "VERCEL_GIT_COMMIT_MESSAGE",
			"VERCEL_GIT_COMMIT_AUTHOR_LOGIN", "VERCEL_GIT_COMMIT_AUTHOR_NAME",
			"VERCEL_GIT_PREVIOUS_SHA", "VERCEL_GIT_PULL_REQUEST_ID",
		), standard.Dictionary{
			"VERCEL_ENV":                    schema.Enum("development", "preview", "production").Default("development"),
			"VERCEL_URL":                    schema.URL().Optional(),
			"VERCEL_PROJECT_PRODUCTION_URL": schema.URL().Optional(),
			"VERCEL_BRANCH_URL":             schema.URL().Optional(),
		}),
	}
}

// NeonVercel is the Neon database integration for Vercel.
func NeonVercel() Preset {
	return Preset{
		ID: "neon-vercel",
		Server: with(optionalStrings(
			"DATABASE_URL_UNPOOLED", "PGHOST", "PGHOST_UNPOOLED", "PGUSER", "PGDATABASE", "PGPASSWORD",
			"POSTGRES_USER", "POSTGRES_HOST", "POSTGRES_PASSWORD", "POSTGRES_DATABASE",
		), standard.Dictionary{
			"DATABASE_URL":             schema.String(),
			"POSTGRES_URL":             schema.URL().Optional(),
			"POSTGRES_URL_NON_POOLING": schema.URL().Optional(),
			"POSTGRES_URL_NO_SSL":      schema.URL().Optional(),
			"POSTGRES_PRISMA_URL":      schema.URL().Optional(),
		}),
	}
}

// Uploadthing requires its API token.
func Uploadthing() Preset {
	return Preset{
		ID:     "uploadthing",
		Server: standard.Dictionary{"UPLOADTHING_TOKEN": schema.String()},
	}
}

// Render system environment variables.
func Render() Preset {
	return Preset{
		ID: "render",
		Server: with(optionalStrings(
			"IS_PULL_REQUEST", "RENDER_DISCOVERY_SERVICE", "RENDER_EXTERNAL_HOSTNAME",
			"RENDER_GIT_BRANCH", "RENDER_GIT_COMMIT", "RENDER_GIT_REPO_SLUG", "RENDER_INSTANCE_ID",
			"RENDER_SERVICE_ID", "RENDER_SERVICE_NAME", "RENDER",
		), standard.Dictionary{
			"RENDER_EXTERNAL_URL": schema.URL().Optional(),
			"RENDER_SERVICE_TYPE": schema.Enum("web", "pserv", "cron", "worker", "static").Optional(),
		}),
	}
}

// Railway provided variables.
func Railway() Preset {
	return Preset{
		ID: "railway",
		Server: optionalStrings(
			"RAILWAY_PUBLIC_DOMAIN", "RAILWAY_PRIVATE_DOMAIN", "RAILWAY_TCP_PROXY_DOMAIN",
			"RAILWAY_TCP_PROXY_PORT", "RAILWAY_TCP_APPLICATION_PORT", "RAILWAY_PROJECT_NAME",
			"RAILWAY_PROJECT_ID", "RAILWAY_ENVIRONMENT_NAME", "RAILWAY_ENVIRONMENT_ID",
			"RAILWAY_SERVICE_NAME", "RAILWAY_SERVICE_ID", "RAILWAY_REPLICA_ID", "RAILWAY_DEPLOYMENT_ID",
			"RAILWAY_SNAPSHOT_ID", "RAILWAY_VOLUME_NAME", "RAILWAY_VOLUME_MOUNT_PATH", "RAILWAY_RUN_UID",
			"RAILWAY_GIT_COMMIT_SHA", "RAILWAY_GIT_AUTHOR_EMAIL", "RAILWAY_GIT_BRANCH",
			"RAILWAY_GIT_REPO_NAME", "RAILWAY_GIT_REPO_OWNER", "RAILWAY_GIT_COMMIT_MESSAGE",
		),
	}
}

// Fly.io machine runtime variables.
func Fly() Preset {
	return Preset{
		ID: "fly",
		Server: with(optionalStrings(
			"FLY_APP_NAME", "FLY_MACHINE_ID", "FLY_ALLOC_ID", "FLY_REGION",
			"FLY_IMAGE_REF", "FLY_MACHINE_VERSION", "FLY_PROCESS_GROUP",
			"FLY_VM_MEMORY_MB", "PRIMARY_REGION",
		), standard.Dictionary{
			"FLY_PUBLIC_IP":  schema.String().Tag("ip").Optional(),
			"FLY_PRIVATE_IP": schema.String().Tag("ip").Optional(),
		}),
	}
}

// Netlify build variables.
func Netlify() Preset {
	return Preset{
		ID: "netlify",
		Server: with(optionalStrings(
			"NETLIFY", "BUILD_ID", "REPOSITORY_URL", "BRANCH", "URL", "DEPLOY_URL",
			"DEPLOY_PRIME_URL", "DEPLOY_ID", "SITE_NAME", "SITE_ID",
		), standard.Dictionary{
			"CONTEXT": schema.Enum("production", "deploy-preview", "branch-deploy", "dev").Optional(),
		}),
	}
}

// UpstashRedis REST credentials.
func UpstashRedis() Preset {
	return Preset{
		ID: "upstash-redis",
		Server: standard.Dictionary{
			"UPSTASH_REDIS_REST_URL":   schema.URL(),
			"UPSTASH_REDIS_REST_TOKEN": schema.String(),
		},
	}
}

// Coolify predefined variables.
func Coolify() Preset {
	return Preset{
		ID: "coolify",
		Server: optionalStrings(
			"COOLIFY_FQDN", "COOLIFY_URL", "COOLIFY_BRANCH", "COOLIFY_RESOURCE_UUID",
			"COOLIFY_CONTAINER_NAME", "SOURCE_COMMIT", "PORT", "HOST",
		),
	}
}

// SupabaseVercel is the Supabase marketplace integration for Vercel.
func SupabaseVercel() Preset {
	return Preset{
		ID:     "supabase-vercel",
		Prefix: "NEXT_PUBLIC_",
		Server: with(optionalStrings(
			"POSTGRES_USER", "POSTGRES_HOST", "POSTGRES_PASSWORD", "POSTGRES_DATABASE",
			"SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY", "SUPABASE_JWT_SECRET",
		), standard.Dictionary{
			"POSTGRES_URL":             schema.URL(),
			"POSTGRES_PRISMA_URL":      schema.URL().Optional(),
			"POSTGRES_URL_NON_POOLING": schema.URL().Optional(),
			"SUPABASE_URL":             schema.URL().Optional(),
		}),
		Client: standard.Dictionary{
			"NEXT_PUBLIC_SUPABASE_ANON_KEY": schema.String().Optional(),
			"NEXT_PUBLIC_SUPABASE_URL":      schema.URL().Optional(),
		},
	}
}

// Vite built-in variables, visible on both sides.
func Vite() Preset {
	return Preset{
		ID: "vite",
		Shared: standard.Dictionary{
			"BASE_URL": schema.String().Optional(),
			"MODE":     schema.String().Optional(),
			"DEV":      schema.Bool().Optional(),
			"PROD":     schema.Bool().Optional(),
			"SSR":      schema.Bool().Optional(),
		},
	}
}

// WXT browser extension build variables.
func WXT() Preset {
	return Preset{
		ID: "wxt",
		Server: standard.Dictionary{
			"MANIFEST_VERSION": schema.Enum("2", "3").Optional(),
			"BROWSER":          schema.Enum("chrome", "firefox", "safari", "edge", "opera").Optional(),
			"CHROME":           schema.Bool().Optional(),
			"FIREFOX":          schema.Bool().Optional(),
			"SAFARI":           schema.Bool().Optional(),
			"EDGE":             schema.Bool().Optional(),
			"OPERA":            schema.Bool().Optional(),
		},
	}
}

var catalog = map[string]func() Preset{
	"vercel":          Vercel,
	"neon-vercel":     NeonVercel,
	"uploadthing":     Uploadthing,
	"render":          Render,
	"railway":         Railway,
	"fly":             Fly,
	"netlify":         Netlify,
	"upstash-redis":   UpstashRedis,
	"coolify":         Coolify,
	"supabase-vercel": SupabaseVercel,
	"vite":            Vite,
	"wxt":             WXT,
}

// Lookup returns a fresh copy of the catalog preset with the given id.
func Lookup(id string) (Preset, bool) {
	fn, ok := catalog[id]
	if !ok {
		return Preset{}, false
	}
	return fn(), true
}

// CatalogIDs returns the ids of every catalog preset, sorted.
func CatalogIDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
