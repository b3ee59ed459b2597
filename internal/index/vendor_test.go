package index

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchercore/internal/core"
)

// TestVendorIndexProcessor_Validate_MapKeysAndLengths exercises spec.md
// §8 scenario 8 directly: the returned map has keys "assets",
// "libraries", "client", "misc"; "client" and "misc" each have exactly
// one entry when the local client jar and log config are both absent.
func TestVendorIndexProcessor_Validate_MapKeysAndLengths(t *testing.T) {
	const clientSHA1 = "1ab8bae4511fe77dd464ca455a15a2c42dac53de"
	const assetSHA1 = "063741a3ae062c05253e7e9ca894ea532cdd7997"
	const logConfigSHA1 = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"latest":{"release":"1.15.2","snapshot":"1.15.2"},"versions":[{"id":"1.15.2","type":"release","url":"%s/version.json","sha1":""}]}`, srv.URL)
	})
	mux.HandleFunc("/version.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": "1.15.2",
			"type": "release",
			"mainClass": "net.minecraft.client.main.Main",
			"libraries": [],
			"assetIndex": {"id": "1.15", "sha1": "", "size": 1, "totalSize": 1, "url": "%s/assetindex.json"},
			"assets": "1.15",
			"downloads": {"client": {"sha1": "%s", "size": 10, "url": "%s/client.jar"}},
			"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 8},
			"logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "type": "log4j2-xml", "file": {"id": "client-1.12.xml", "sha1": "%s", "size": 0, "url": "%s/log_configs/client-1.12.xml"}}}
		}`, srv.URL, clientSHA1, srv.URL, logConfigSHA1, srv.URL)
	})
	mux.HandleFunc("/assetindex.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"objects": {"some/asset.png": {"hash": "%s", "size": 9}}}`, assetSHA1)
	})
	mux.HandleFunc("/client.jar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "client-jar")
	})
	mux.HandleFunc("/log_configs/client-1.12.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write(nil)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	origManifest, origCDN := VersionManifestURL, AssetCDNBase
	VersionManifestURL = srv.URL + "/manifest.json"
	AssetCDNBase = srv.URL + "/assets"
	defer func() { VersionManifestURL, AssetCDNBase = origManifest, origCDN }()

	common := t.TempDir()
	assets := t.TempDir()
	p := NewVendorIndexProcessor("1.15.2", common, assets)
	if err := p.Init(t.Context()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var stagesCompleted []string
	result, err := p.Validate(t.Context(), func(stage string) {
		stagesCompleted = append(stagesCompleted, stage)
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for _, key := range []string{"assets", "libraries", "client", "misc"} {
		if _, ok := result[key]; !ok {
			t.Errorf("result missing key %q; got keys %v", key, mapKeys(result))
		}
	}
	if _, stillPresent := result["log_config"]; stillPresent {
		t.Error(`result still has a "log_config" key; spec.md §8 scenario 8 names it "misc"`)
	}

	if len(result["client"]) != 1 {
		t.Errorf("client length = %d, want 1 (local client jar absent)", len(result["client"]))
	}
	if len(result["misc"]) != 1 {
		t.Errorf("misc length = %d, want 1 (local log config absent)", len(result["misc"]))
	}

	wantStages := []string{"assets", "libraries", "client", "log_config"}
	if len(stagesCompleted) != len(wantStages) {
		t.Fatalf("stagesCompleted = %v, want %v", stagesCompleted, wantStages)
	}
	for i, s := range wantStages {
		if stagesCompleted[i] != s {
			t.Errorf("stagesCompleted[%d] = %q, want %q", i, stagesCompleted[i], s)
		}
	}
}

// TestVendorIndexProcessor_Validate_SkipsWhenLocalFilesValid confirms
// client/misc both drop to zero once the on-disk copies already match.
func TestVendorIndexProcessor_Validate_SkipsWhenLocalFilesValid(t *testing.T) {
	const clientBody = "client-jar"
	const clientSHA1 = "73eb85adc895f4025a3ba88decece4a791cb3e50"
	const logConfigSHA1 = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"latest":{"release":"1.15.2","snapshot":"1.15.2"},"versions":[{"id":"1.15.2","type":"release","url":"%s/version.json","sha1":""}]}`, srv.URL)
	})
	mux.HandleFunc("/version.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": "1.15.2",
			"type": "release",
			"mainClass": "net.minecraft.client.main.Main",
			"libraries": [],
			"assetIndex": {"id": "1.15", "sha1": "", "size": 1, "totalSize": 1, "url": "%s/assetindex.json"},
			"assets": "1.15",
			"downloads": {"client": {"sha1": "%s", "size": %d, "url": "%s/client.jar"}},
			"javaVersion": {"component": "java-runtime-gamma", "majorVersion": 8},
			"logging": {"client": {"argument": "-Dlog4j.configurationFile=${path}", "type": "log4j2-xml", "file": {"id": "client-1.12.xml", "sha1": "%s", "size": 0, "url": "%s/log_configs/client-1.12.xml"}}}
		}`, srv.URL, clientSHA1, len(clientBody), srv.URL, logConfigSHA1, srv.URL)
	})
	mux.HandleFunc("/assetindex.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"objects": {}}`)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	origManifest, origCDN := VersionManifestURL, AssetCDNBase
	VersionManifestURL = srv.URL + "/manifest.json"
	AssetCDNBase = srv.URL + "/assets"
	defer func() { VersionManifestURL, AssetCDNBase = origManifest, origCDN }()

	common := t.TempDir()
	assets := t.TempDir()

	clientPath := filepath.Join(common, "versions", "1.15.2", "1.15.2.jar")
	if err := os.MkdirAll(filepath.Dir(clientPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(clientPath, []byte(clientBody), 0o644); err != nil {
		t.Fatal(err)
	}

	logConfigPath := filepath.Join(assets, "log_configs", "client-1.12.xml")
	if err := os.MkdirAll(filepath.Dir(logConfigPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logConfigPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewVendorIndexProcessor("1.15.2", common, assets)
	if err := p.Init(t.Context()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	result, err := p.Validate(t.Context(), nil)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(result["client"]) != 0 {
		t.Errorf("client length = %d, want 0 (already valid on disk)", len(result["client"]))
	}
	if len(result["misc"]) != 0 {
		t.Errorf("misc length = %d, want 0 (already valid on disk)", len(result["misc"]))
	}
}

func mapKeys(m map[string][]core.Asset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
