package gatus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	netv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/lexfrei/gatus-ingress-operator/internal/gatus"
)

func newIngress(namespace, name, host, path string, tls bool) netv1.Ingress {
	ing := netv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: netv1.IngressSpec{
			Rules: []netv1.IngressRule{
				{
					Host: host,
					IngressRuleValue: netv1.IngressRuleValue{
						HTTP: &netv1.HTTPIngressRuleValue{
							Paths: []netv1.HTTPIngressPath{
								{Path: path},
							},
						},
					},
				},
			},
		},
	}

	if tls {
		ing.Spec.TLS = []netv1.IngressTLS{
			{Hosts: []string{host}},
		}
	}

	return ing
}

func TestBuild_TLSIngress(t *testing.T) {
	t.Parallel()

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	snapshot := []netv1.Ingress{
		newIngress("shop", "shop-ingress", "shop.example.com", "/", true),
	}

	doc := builder.Build(context.Background(), snapshot)

	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "shop: https://shop.example.com/", doc.Endpoints[0].Name)
	assert.Equal(t, "shop", doc.Endpoints[0].Group)
	assert.Equal(t, "https://shop.example.com/", doc.Endpoints[0].URL)
}

func TestBuild_PlainIngress(t *testing.T) {
	t.Parallel()

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	snapshot := []netv1.Ingress{
		newIngress("shop", "shop-ingress", "shop.example.com", "/", false),
	}

	doc := builder.Build(context.Background(), snapshot)

	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "shop: http://shop.example.com/", doc.Endpoints[0].Name)
	assert.Equal(t, "http://shop.example.com/", doc.Endpoints[0].URL)
}

func TestBuild_TLSForDifferentHost(t *testing.T) {
	t.Parallel()

	ing := newIngress("shop", "shop-ingress", "shop.example.com", "/", false)
	ing.Spec.TLS = []netv1.IngressTLS{
		{Hosts: []string{"other.example.com"}},
	}

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{ing})

	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "http://shop.example.com/", doc.Endpoints[0].URL)
}

func TestBuild_SkipConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*netv1.Ingress)
	}{
		{
			name: "empty path produces no endpoint",
			mutate: func(ing *netv1.Ingress) {
				ing.Spec.Rules[0].HTTP.Paths[0].Path = ""
			},
		},
		{
			name: "missing host skips the rule",
			mutate: func(ing *netv1.Ingress) {
				ing.Spec.Rules[0].Host = ""
			},
		},
		{
			name: "rule without http paths skips the rule",
			mutate: func(ing *netv1.Ingress) {
				ing.Spec.Rules[0].HTTP = nil
			},
		},
		{
			name: "no paths at all",
			mutate: func(ing *netv1.Ingress) {
				ing.Spec.Rules[0].HTTP.Paths = nil
			},
		},
		{
			name: "no rules at all",
			mutate: func(ing *netv1.Ingress) {
				ing.Spec.Rules = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ing := newIngress("shop", "shop-ingress", "shop.example.com", "/", true)
			tt.mutate(&ing)

			builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
			doc := builder.Build(context.Background(), []netv1.Ingress{ing})

			assert.Empty(t, doc.Endpoints)
		})
	}
}

func TestBuild_OrderInvariance(t *testing.T) {
	t.Parallel()

	first := newIngress("alpha", "a", "a.example.com", "/api", true)
	second := newIngress("beta", "b", "b.example.com", "/", false)
	third := newIngress("alpha", "c", "c.example.com", "/health", false)

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)

	doc1 := builder.Build(context.Background(), []netv1.Ingress{first, second, third})
	doc2 := builder.Build(context.Background(), []netv1.Ingress{third, first, second})

	yaml1, err := doc1.CanonicalYAML()
	require.NoError(t, err)

	yaml2, err := doc2.CanonicalYAML()
	require.NoError(t, err)

	assert.Equal(t, yaml1, yaml2)
}

func TestBuild_SortedEndpoints(t *testing.T) {
	t.Parallel()

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{
		newIngress("zeta", "z", "z.example.com", "/", false),
		newIngress("alpha", "a", "a.example.com", "/b", false),
		newIngress("alpha", "a2", "a.example.com", "/a", false),
	})

	require.Len(t, doc.Endpoints, 3)
	assert.Equal(t, "alpha: http://a.example.com/a", doc.Endpoints[0].Name)
	assert.Equal(t, "alpha: http://a.example.com/b", doc.Endpoints[1].Name)
	assert.Equal(t, "zeta: http://z.example.com/", doc.Endpoints[2].Name)
}

func TestBuild_DuplicateRulesCollapse(t *testing.T) {
	t.Parallel()

	// Two Ingress objects in the same namespace declaring the same
	// host and path must produce a single endpoint.
	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{
		newIngress("shop", "first", "shop.example.com", "/", true),
		newIngress("shop", "second", "shop.example.com", "/", true),
	})

	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "shop: https://shop.example.com/", doc.Endpoints[0].Name)
}

func TestBuild_MultiplePathsAndRules(t *testing.T) {
	t.Parallel()

	ing := netv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: "multi", Namespace: "apps"},
		Spec: netv1.IngressSpec{
			TLS: []netv1.IngressTLS{
				{Hosts: []string{"secure.example.com"}},
			},
			Rules: []netv1.IngressRule{
				{
					Host: "secure.example.com",
					IngressRuleValue: netv1.IngressRuleValue{
						HTTP: &netv1.HTTPIngressRuleValue{
							Paths: []netv1.HTTPIngressPath{
								{Path: "/"},
								{Path: "/api"},
							},
						},
					},
				},
				{
					Host: "plain.example.com",
					IngressRuleValue: netv1.IngressRuleValue{
						HTTP: &netv1.HTTPIngressRuleValue{
							Paths: []netv1.HTTPIngressPath{
								{Path: "/"},
							},
						},
					},
				},
			},
		},
	}

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{ing})

	require.Len(t, doc.Endpoints, 3)
	assert.Equal(t, "apps: http://plain.example.com/", doc.Endpoints[0].Name)
	assert.Equal(t, "apps: https://secure.example.com/", doc.Endpoints[1].Name)
	assert.Equal(t, "apps: https://secure.example.com/api", doc.Endpoints[2].Name)
}

func TestBuild_ValuesDocument(t *testing.T) {
	t.Parallel()

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{
		newIngress("shop", "shop-ingress", "shop.example.com", "/", true),
	})

	values := doc.Values()

	configSection, ok := values["config"].(map[string]any)
	require.True(t, ok)

	storage, ok := configSection["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sqlite", storage["type"])
	assert.Equal(t, "/srv/gatus.db", storage["path"])

	defaults, ok := configSection["x-default-endpoint"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1m", defaults["interval"])
	assert.Equal(t, []any{"[STATUS] == 200"}, defaults["conditions"])

	endpoints, ok := configSection["endpoints"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "shop: https://shop.example.com/", endpoints[0]["name"])
	assert.Equal(t, "shop", endpoints[0]["group"])
	assert.Equal(t, "https://shop.example.com/", endpoints[0]["url"])
	assert.Equal(t, "1m", endpoints[0]["interval"])
}

func TestBuild_OverridesMerged(t *testing.T) {
	t.Parallel()

	overrides := map[string]any{
		"replicaCount": 2,
		"config": map[string]any{
			"alerting": map[string]any{"slack": map[string]any{"webhook-url": "https://hooks.example.com"}},
		},
	}

	builder := gatus.NewBuilder("/srv/gatus.db", overrides, nil)
	doc := builder.Build(context.Background(), nil)

	values := doc.Values()
	assert.Equal(t, 2, values["replicaCount"])

	configSection, ok := values["config"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, configSection, "alerting")
	assert.Contains(t, configSection, "endpoints")
	assert.Contains(t, configSection, "storage")
}

func TestBuild_ProtectedKeysNotOverridable(t *testing.T) {
	t.Parallel()

	overrides := map[string]any{
		"config": map[string]any{
			"endpoints": []any{map[string]any{"name": "rogue", "url": "http://rogue.example.com"}},
			"storage":   map[string]any{"type": "postgres"},
		},
	}

	builder := gatus.NewBuilder("/srv/gatus.db", overrides, nil)
	doc := builder.Build(context.Background(), nil)

	configSection, ok := doc.Values()["config"].(map[string]any)
	require.True(t, ok)

	endpoints, ok := configSection["endpoints"].([]map[string]any)
	require.True(t, ok)
	assert.Empty(t, endpoints)

	storage, ok := configSection["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sqlite", storage["type"])
}

func TestBuild_CustomDefaultEndpointSettings(t *testing.T) {
	t.Parallel()

	overrides := map[string]any{
		"config": map[string]any{
			"x-default-endpoint": map[string]any{
				"interval":   "30s",
				"conditions": []any{"[STATUS] == 200", "[RESPONSE_TIME] < 1000"},
			},
		},
	}

	builder := gatus.NewBuilder("/srv/gatus.db", overrides, nil)
	doc := builder.Build(context.Background(), []netv1.Ingress{
		newIngress("shop", "shop-ingress", "shop.example.com", "/", false),
	})

	configSection, ok := doc.Values()["config"].(map[string]any)
	require.True(t, ok)

	endpoints, ok := configSection["endpoints"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "30s", endpoints[0]["interval"])
	assert.Len(t, endpoints[0]["conditions"], 2)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	t.Parallel()

	builder := gatus.NewBuilder("/srv/gatus.db", nil, nil)
	doc := builder.Build(context.Background(), nil)

	assert.Empty(t, doc.Endpoints)

	configSection, ok := doc.Values()["config"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, configSection, "endpoints")
	assert.Contains(t, configSection, "storage")
	assert.Contains(t, configSection, "x-default-endpoint")
}
