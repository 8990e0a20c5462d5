// Package config decodes the TOML settings file external tooling (or the
// cmd CLI) hands the engine: the [RenderSettings] value described in
// spec.md §6, parsed with github.com/pelletier/go-toml/v2.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FilesSettings names the mesh, textures and output location.
type FilesSettings struct {
	ObjPath    string `toml:"obj_path"`
	MeshFormat string `toml:"mesh_format"` // "obj" or "gltf"; empty infers from extension.
	OutBase    string `toml:"out_base"`
	OutDir     string `toml:"out_dir"`
	Texture    string `toml:"texture"`
	Background string `toml:"background_image"`
}

// RenderSettingsTOML groups the render-quality flags of spec.md §6's
// `render` table.
type RenderSettingsTOML struct {
	Width             int     `toml:"width"`
	Height            int     `toml:"height"`
	Projection        string  `toml:"projection"` // "perspective" or "orthographic"
	UseZBuffer        bool    `toml:"use_zbuffer"`
	UseTexture        bool    `toml:"use_texture"`
	UseGamma          bool    `toml:"use_gamma"`
	BackfaceCulling   bool    `toml:"backface_culling"`
	Wireframe         bool    `toml:"wireframe"`
	CullSmallTris     bool    `toml:"cull_small_triangles"`
	MinTriangleArea   float64 `toml:"min_triangle_area"`
	MSAASamples       int     `toml:"msaa_samples"`
	Workers           int     `toml:"workers"`
	NearClip          bool    `toml:"near_clip"`
}

// CameraSettings is spec.md §6's `camera` table.
type CameraSettings struct {
	From [3]float64 `toml:"from"`
	At   [3]float64 `toml:"at"`
	Up   [3]float64 `toml:"up"`
	FOV  float64     `toml:"fov"`
}

// ObjectSettings is spec.md §6's `object` table: the single mesh
// instance's placement. Scale may be written as a bare number (uniform)
// or a 3-vector; ScaleVec resolves either form.
type ObjectSettings struct {
	Position    [3]float64 `toml:"position"`
	Rotation    [3]float64 `toml:"rotation"`
	Scale       any        `toml:"scale"`
}

// ScaleVec resolves Scale into a 3-vector, treating a bare number as a
// uniform scale and defaulting to (1,1,1) if unset.
func (o ObjectSettings) ScaleVec() [3]float64 {
	switch v := o.Scale.(type) {
	case float64:
		return [3]float64{v, v, v}
	case int64:
		f := float64(v)
		return [3]float64{f, f, f}
	case []any:
		var out [3]float64
		for i := 0; i < 3 && i < len(v); i++ {
			out[i], _ = v[i].(float64)
		}
		return out
	default:
		return [3]float64{1, 1, 1}
	}
}

// LightEntry is one element of lighting.lights: a tagged union decoded
// generically since the field set depends on Type.
type LightEntry struct {
	Type      string     `toml:"type"` // "directional" or "point"
	Enabled   bool       `toml:"enabled"`
	Color     [3]float64 `toml:"color"`
	Intensity float64    `toml:"intensity"`

	// Directional-only.
	Direction [3]float64 `toml:"direction"`

	// Point-only.
	Position  [3]float64 `toml:"position"`
	Constant  float64    `toml:"constant"`
	Linear    float64    `toml:"linear"`
	Quadratic float64    `toml:"quadratic"`
}

// LightingSettings is spec.md §6's `lighting` table.
type LightingSettings struct {
	UseLighting  bool         `toml:"use_lighting"`
	Ambient      float64      `toml:"ambient"`
	AmbientColor [3]float64   `toml:"ambient_color"`
	Lights       []LightEntry `toml:"lights"`
}

// MaterialSettings is spec.md §6's `material` table, covering both the
// Phong and PBR field sets; only the fields for the selected model are
// meaningful.
type MaterialSettings struct {
	UsePBR   bool `toml:"use_pbr"`
	UsePhong bool `toml:"use_phong"`

	Alpha         float64    `toml:"alpha"`
	Emissive      [3]float64 `toml:"emissive"`
	AmbientFactor [3]float64 `toml:"ambient_factor"`
	DebugFaceColors bool     `toml:"debug_face_colors"`
	DoubleSided     bool     `toml:"double_sided"`

	// Phong fields.
	DiffuseColor     [3]float64 `toml:"diffuse_color"`
	DiffuseIntensity float64    `toml:"diffuse_intensity"`
	SpecularColor    [3]float64 `toml:"specular_color"`
	SpecularIntensity float64   `toml:"specular_intensity"`
	Shininess        float64    `toml:"shininess"`

	// PBR fields.
	BaseColor        [3]float64 `toml:"base_color"`
	Metallic         float64    `toml:"metallic"`
	Roughness        float64    `toml:"roughness"`
	AmbientOcclusion float64    `toml:"ambient_occlusion"`
	Subsurface       float64    `toml:"subsurface"`
	Anisotropy       float64    `toml:"anisotropy"`
	NormalIntensity  float64    `toml:"normal_intensity"`
}

// ShadowSettings is spec.md §6's `shadow` table.
type ShadowSettings struct {
	EnhancedAO          bool    `toml:"enhanced_ao"`
	AOStrength          float64 `toml:"ao_strength"`
	SoftShadows         bool    `toml:"soft_shadows"`
	ShadowStrength      float64 `toml:"shadow_strength"`
	EnableShadowMapping bool    `toml:"enable_shadow_mapping"`
	ShadowMapSize       int     `toml:"shadow_map_size"`
	ShadowBias          float64 `toml:"shadow_bias"`
	ShadowDistance      float64 `toml:"shadow_distance"`
}

// BackgroundSettings is spec.md §6's `background` table.
type BackgroundSettings struct {
	UseBackgroundImage     bool       `toml:"use_background_image"`
	EnableGradient         bool       `toml:"enable_gradient_background"`
	GradientTop            [3]float64 `toml:"gradient_top_color"`
	GradientBottom         [3]float64 `toml:"gradient_bottom_color"`
	EnableGroundPlane      bool       `toml:"enable_ground_plane"`
	GroundPlaneColor       [3]float64 `toml:"ground_plane_color"`
	GroundPlaneHeight      float64    `toml:"ground_plane_height"`
}

// AnimationSettings is spec.md §6's `animation` table.
type AnimationSettings struct {
	Animate           bool    `toml:"animate"`
	FPS               int     `toml:"fps"`
	RotationSpeed     float64 `toml:"rotation_speed"`
	AnimationType     string  `toml:"animation_type"` // "CameraOrbit", "ObjectLocalRotation", "None"
	RotationAxis      string  `toml:"rotation_axis"`  // "X", "Y", "Z", "Custom"
	CustomRotationAxis [3]float64 `toml:"custom_rotation_axis"`
	Frames            int     `toml:"frames"`
}

// RenderSettings is the top-level decoded config file: every table named
// in spec.md §6.
type RenderSettings struct {
	Files      FilesSettings       `toml:"files"`
	Render     RenderSettingsTOML  `toml:"render"`
	Camera     CameraSettings      `toml:"camera"`
	Object     ObjectSettings      `toml:"object"`
	Lighting   LightingSettings    `toml:"lighting"`
	Material   MaterialSettings    `toml:"material"`
	Shadow     ShadowSettings      `toml:"shadow"`
	Background BackgroundSettings  `toml:"background"`
	Animation  AnimationSettings   `toml:"animation"`
}

// Default returns a RenderSettings with reasonable defaults for every
// field a config file may omit, matching [engine.DefaultOptions].
func Default() RenderSettings {
	return RenderSettings{
		Files: FilesSettings{OutBase: "render", OutDir: "."},
		Render: RenderSettingsTOML{
			Width: 800, Height: 600,
			Projection:      "perspective",
			UseZBuffer:      true,
			UseTexture:      true,
			UseGamma:        true,
			BackfaceCulling: true,
			CullSmallTris:   true,
			MinTriangleArea: 0.00002,
			MSAASamples:     4,
			NearClip:        true,
		},
		Camera: CameraSettings{
			From: [3]float64{0, 1, 5},
			At:   [3]float64{0, 0, 0},
			Up:   [3]float64{0, 1, 0},
			FOV:  45,
		},
		Object: ObjectSettings{Scale: 1.0},
		Lighting: LightingSettings{
			UseLighting:  true,
			Ambient:      0.1,
			AmbientColor: [3]float64{1, 1, 1},
			Lights: []LightEntry{
				{Type: "directional", Enabled: true, Color: [3]float64{1, 1, 1}, Intensity: 1, Direction: [3]float64{0.3, 1, 0.5}},
			},
		},
		Material: MaterialSettings{
			UsePhong:      true,
			Alpha:         1,
			AmbientFactor: [3]float64{1, 1, 1},
			DiffuseColor:  [3]float64{0.8, 0.8, 0.8},
			DiffuseIntensity: 1, SpecularIntensity: 1, Shininess: 32,
			BaseColor: [3]float64{0.8, 0.8, 0.8}, Roughness: 0.5, AmbientOcclusion: 1,
			NormalIntensity: 1,
		},
		Shadow: ShadowSettings{
			ShadowMapSize: 1024, ShadowBias: 0.0015, ShadowStrength: 0.6, AOStrength: 0.5,
		},
		Background: BackgroundSettings{
			EnableGradient:    true,
			GradientTop:       [3]float64{0.4, 0.6, 0.9},
			GradientBottom:    [3]float64{0.8, 0.85, 0.9},
			EnableGroundPlane: true,
			GroundPlaneColor:  [3]float64{0.5, 0.5, 0.5},
		},
		Animation: AnimationSettings{FPS: 30, RotationSpeed: 30, AnimationType: "None", RotationAxis: "Y", Frames: 60},
	}
}

// Load reads and decodes a TOML config file at path, starting from
// [Default] and overlaying whatever the file sets. A missing or
// unreadable file is an input error reported to the caller.
func Load(path string) (RenderSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RenderSettings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	settings := Default()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return RenderSettings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return settings, nil
}
