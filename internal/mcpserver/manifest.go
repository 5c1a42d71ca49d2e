package mcpserver

import "encoding/json"

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/orphic"
	repositoryURL  = "https://github.com/panbanda/orphic"
	imageName      = "ghcr.io/panbanda/orphic"
)

// Manifest is the server.json entry published to the MCP registry.
type Manifest struct {
	Schema      string            `json:"$schema"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Repository  *ManifestRepo     `json:"repository,omitempty"`
	Packages    []ManifestPackage `json:"packages,omitempty"`
}

type ManifestRepo struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// ManifestPackage is one installable form of the server.
type ManifestPackage struct {
	RegistryType string            `json:"registryType"`
	Identifier   string            `json:"identifier"`
	Arguments    []PackageArgument `json:"packageArguments,omitempty"`
	Env          []PackageEnv      `json:"environmentVariables,omitempty"`
	Transport    PackageTransport  `json:"transport"`
}

type PackageArgument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type PackageEnv struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

type PackageTransport struct {
	Type string `json:"type"`
}

// imagePackage runs the container image with the mcp subcommand over stdio.
// ORPHIC_CONFIG points the server at a config file inside the container.
func imagePackage(version string) ManifestPackage {
	return ManifestPackage{
		RegistryType: "oci",
		Identifier:   imageName + ":" + version,
		Arguments:    []PackageArgument{{Type: "positional", Value: "mcp"}},
		Env: []PackageEnv{{
			Name:        "ORPHIC_CONFIG",
			Description: "Path to an orphic.toml, .yaml or .json config file",
		}},
		Transport: PackageTransport{Type: "stdio"},
	}
}

// GenerateManifest renders server.json for version ("0.0.0" when empty).
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}
	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Finds C functions that are defined but never called",
		Version:     version,
		Repository:  &ManifestRepo{URL: repositoryURL, Source: "github"},
		Packages:    []ManifestPackage{imagePackage(version)},
	}, "", "  ")
}
