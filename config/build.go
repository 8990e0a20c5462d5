package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cogentraster/raster3d/engine"
	"github.com/cogentraster/raster3d/loaders"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/pipeline"
	"github.com/cogentraster/raster3d/scene"
)

// Build turns a decoded RenderSettings into a ready-to-run [scene.Scene]
// and [engine.Options], loading the mesh, its textures and any background
// image named in Files. This is the seam the cmd package's render and
// animate subcommands both call through after [Load]ing a config file.
func Build(rs RenderSettings, logger *slog.Logger) (*scene.Scene, engine.Options, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mb, mats, texs, err := loadMesh(rs.Files, logger)
	if err != nil {
		return nil, engine.Options{}, err
	}

	sc := scene.NewScene(rs.Files.ObjPath)
	sc.SetMesh(mb)
	for _, t := range texs {
		if t != nil {
			sc.SetTexture(t)
		}
	}

	mat := buildMaterial(rs.Material, mats)
	sc.SetMaterial(mat)

	if rs.Files.Texture != "" {
		tex, err := loaders.LoadTexture("user_texture", rs.Files.Texture, logger)
		if err != nil {
			logger.Warn("config: ignoring unreadable texture override", "file", rs.Files.Texture, "err", err)
		} else {
			sc.SetTexture(tex)
			mat.AsMaterialBase().TextureSource = scene.TextureImage
			mat.AsMaterialBase().TextureName = tex.Name
		}
	}
	if rs.Material.DebugFaceColors {
		mat.AsMaterialBase().TextureSource = scene.TextureFaceColor
	}

	obj := scene.NewSceneObject("object", mb.Name, mat.AsMaterialBase().Name)
	obj.SetPos(vec3From(rs.Object.Position))
	obj.SetScale(vec3From(rs.Object.ScaleVec()))
	rx, ry, rz := rs.Object.Rotation[0], rs.Object.Rotation[1], rs.Object.Rotation[2]
	obj.SetRotation(math32.NewQuatEuler(math32.Vec3(
		float32(rx)*math32.DegToRadFactor,
		float32(ry)*math32.DegToRadFactor,
		float32(rz)*math32.DegToRadFactor,
	)))
	sc.AddObject(obj)

	buildLighting(sc, rs.Lighting)
	buildBackground(sc, rs.Background, rs.Files.Background, logger)

	cam := scene.NewCamera()
	cam.Pos = vec3From(rs.Camera.From)
	cam.Ortho = strings.EqualFold(rs.Render.Projection, "orthographic")
	cam.FOV = float32(rs.Camera.FOV)
	cam.Aspect = float32(rs.Render.Width) / float32(rs.Render.Height)
	cam.LookAt(vec3From(rs.Camera.At), vec3From(rs.Camera.Up))
	if cam.Ortho {
		// Derive the ortho half-extent from the look-at distance and FOV, so
		// an orthographic render frames the scene the way a perspective one
		// would at the same from/at/fov, the same way the shadow pass derives
		// its own light-frustum OrthoSize from the scene's bounding radius.
		dist := cam.Pos.DistTo(cam.Target)
		if dist < 1e-3 {
			dist = 1
		}
		cam.OrthoSize = dist * math32.Tan(cam.FOV*math32.DegToRadFactor/2)
	}
	sc.Camera = cam

	if err := sc.Validate(); err != nil {
		return nil, engine.Options{}, fmt.Errorf("config: building scene: %w", err)
	}

	opts := buildOptions(rs, logger)
	return sc, opts, nil
}

func loadMesh(files FilesSettings, logger *slog.Logger) (*scene.MeshBase, []scene.Material, []*scene.TextureBase, error) {
	format := strings.ToLower(files.MeshFormat)
	if format == "" {
		switch strings.ToLower(filepath.Ext(files.ObjPath)) {
		case ".gltf", ".glb":
			format = "gltf"
		default:
			format = "obj"
		}
	}
	switch format {
	case "gltf":
		return loaders.LoadGLTF(files.ObjPath, logger)
	case "obj":
		return loaders.LoadOBJ(files.ObjPath, logger)
	default:
		return nil, nil, nil, fmt.Errorf("config: unknown mesh_format %q", files.MeshFormat)
	}
}

// buildMaterial picks between the config's explicit material table and
// whatever the mesh loader parsed from the file's own material library,
// preferring the config table since it is what the user actually edited.
func buildMaterial(ms MaterialSettings, loaded []scene.Material) scene.Material {
	if !ms.UsePBR && !ms.UsePhong && len(loaded) > 0 {
		return loaded[0]
	}
	if ms.UsePBR {
		m := scene.NewPBRMaterial("material", vec3From(ms.BaseColor), float32(ms.Metallic), float32(ms.Roughness))
		m.Alpha = float32(ms.Alpha)
		m.Emissive = vec3From(ms.Emissive)
		m.AmbientFactor = vec3From(ms.AmbientFactor)
		m.AmbientOcclusion = float32(ms.AmbientOcclusion)
		m.Subsurface = float32(ms.Subsurface)
		m.Anisotropy = float32(ms.Anisotropy)
		m.NormalIntensity = float32(ms.NormalIntensity)
		if m.NormalIntensity == 0 {
			m.NormalIntensity = 1
		}
		m.DoubleSided = ms.DoubleSided
		return m
	}
	m := scene.NewBlinnPhongMaterial("material", vec3From(ms.DiffuseColor))
	m.Alpha = float32(ms.Alpha)
	m.Emissive = vec3From(ms.Emissive)
	m.AmbientFactor = vec3From(ms.AmbientFactor)
	m.DiffuseIntensity = float32(ms.DiffuseIntensity)
	m.SpecularIntensity = float32(ms.SpecularIntensity)
	m.Shininess = float32(ms.Shininess)
	m.Specular = vec3From(ms.SpecularColor)
	if m.Specular.IsNil() {
		m.Specular = math32.Vec3(1, 1, 1)
	}
	m.DoubleSided = ms.DoubleSided
	return m
}

func buildLighting(sc *scene.Scene, ls LightingSettings) {
	sc.Ambient.Color = vec3From(ls.AmbientColor)
	sc.Ambient.Intensity = float32(ls.Ambient)
	if !ls.UseLighting {
		return
	}
	for i, le := range ls.Lights {
		if !le.Enabled {
			continue
		}
		name := fmt.Sprintf("light_%d", i)
		switch strings.ToLower(le.Type) {
		case "point":
			pl := scene.NewPointLight(name, vec3From(le.Position), vec3From(le.Color), float32(le.Intensity))
			if le.Constant != 0 {
				pl.Constant = float32(le.Constant)
			}
			if le.Linear != 0 {
				pl.Linear = float32(le.Linear)
			}
			if le.Quadratic != 0 {
				pl.Quadratic = float32(le.Quadratic)
			}
			sc.AddLight(pl)
		default: // "directional"
			dl := scene.NewDirLight(name, vec3From(le.Color), float32(le.Intensity))
			if !vec3From(le.Direction).IsNil() {
				dl.Direction = vec3From(le.Direction).Normal()
			}
			sc.AddLight(dl)
		}
	}
}

func buildBackground(sc *scene.Scene, bs BackgroundSettings, imagePath string, logger *slog.Logger) {
	bg := scene.DefaultBackground()
	bg.EnableGradient = bs.EnableGradient
	if !vec3From(bs.GradientTop).IsNil() {
		bg.SkyTop = vec3From(bs.GradientTop)
	}
	if !vec3From(bs.GradientBottom).IsNil() {
		bg.SkyBottom = vec3From(bs.GradientBottom)
	}
	bg.EnableGround = bs.EnableGroundPlane
	if !vec3From(bs.GroundPlaneColor).IsNil() {
		bg.GroundColor = vec3From(bs.GroundPlaneColor)
	}
	bg.GroundHeight = float32(bs.GroundPlaneHeight)

	if bs.UseBackgroundImage && imagePath != "" {
		tex, err := loaders.LoadTexture("background", imagePath, logger)
		if err != nil {
			logger.Warn("config: ignoring unreadable background image", "file", imagePath, "err", err)
		} else {
			sc.SetTexture(tex)
			bg.UseImage = true
			bg.SkyImage = tex.Name
		}
	}
	sc.Background = bg
}

func buildOptions(rs RenderSettings, logger *slog.Logger) engine.Options {
	opts := engine.DefaultOptions(rs.Render.Width, rs.Render.Height)
	opts.Logger = logger
	opts.MSAASamples = rs.Render.MSAASamples
	opts.Workers = rs.Render.Workers
	opts.BackfaceCull = rs.Render.BackfaceCulling
	opts.CullSmallTris = rs.Render.CullSmallTris
	if rs.Render.MinTriangleArea != 0 {
		opts.MinTriangleArea = float32(rs.Render.MinTriangleArea)
	}
	opts.NearClip = rs.Render.NearClip
	opts.Wireframe = rs.Render.Wireframe
	opts.UseGamma = rs.Render.UseGamma
	opts.UseZBuffer = rs.Render.UseZBuffer
	opts.DebugFaceColors = rs.Material.DebugFaceColors

	opts.EnableShadowMapping = rs.Shadow.EnableShadowMapping
	if rs.Shadow.ShadowMapSize != 0 {
		opts.ShadowMapSize = rs.Shadow.ShadowMapSize
	}
	shadowOpts := pipeline.DefaultShadowOptions()
	if rs.Shadow.ShadowBias != 0 {
		shadowOpts.BiasMin = float32(rs.Shadow.ShadowBias)
	}
	opts.ShadowOptions = shadowOpts

	opts.Shade = pipeline.ShadeOptions{
		EnhancedAO:     rs.Shadow.EnhancedAO,
		AOStrength:     float32(rs.Shadow.AOStrength),
		SoftShadows:    rs.Shadow.SoftShadows,
		ShadowStrength: float32(rs.Shadow.ShadowStrength),
		ShadowOptions:  shadowOpts,
	}
	return opts
}

func vec3From(v [3]float64) math32.Vector3 {
	return math32.Vec3(float32(v[0]), float32(v[1]), float32(v[2]))
}
