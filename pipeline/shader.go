package pipeline

import (
	"github.com/cogentraster/raster3d/blend"
	"github.com/cogentraster/raster3d/math32"
	"github.com/cogentraster/raster3d/scene"
)

// ShadeOptions gates the heuristic additions to the base lighting models.
type ShadeOptions struct {
	EnhancedAO     bool
	AOStrength     float32
	SoftShadows    bool
	ShadowStrength float32
	ShadowOptions  ShadowOptions
}

// ShadeContext carries everything the shader needs beyond a single
// fragment's interpolated attributes: the scene's lights and textures, the
// shadow map from the first shadow-casting light, and the heuristic gates.
type ShadeContext struct {
	Scene     *scene.Scene
	ShadowMap *ShadowMap

	// ShadowLight is the specific directional light ShadowMap was built
	// from; only this light's contribution is multiplied by the shadow
	// visibility factor, even if the scene has more than one enabled
	// directional light.
	ShadowLight *scene.DirLight

	Options ShadeOptions
}

// Fragment is one interpolated, perspective-corrected sample ready for
// shading.
type Fragment struct {
	WorldPos    math32.Vector3
	WorldNormal math32.Vector3
	UV          math32.Vector2
	ViewDir     math32.Vector3

	// ViewDist is the world-space distance from the eye to WorldPos, kept
	// separately from ViewDir since ViewDir is normalized. softShadowFactor's
	// depth term needs the actual distance, not a unit vector's length.
	ViewDist float32

	// Bary are the barycentric weights at this sample, used by the
	// enhanced-AO and soft-shadow heuristics which look at how close the
	// sample sits to a triangle edge or vertex.
	Bary [3]float32
}

// Shade evaluates C6 for one fragment of triangle td, returning the
// pre-composite linear-space color and the material's alpha. The caller
// (the rasterizer) is responsible for the alpha blend against the
// framebuffer and the optional gamma encode at write time.
func Shade(td *TriangleData, frag Fragment, ctx *ShadeContext) (math32.Vector3, float32) {
	base := td.Material.AsMaterialBase()
	albedo := albedoFor(td, frag.UV, ctx)
	normal := perturbNormal(frag.WorldNormal, frag.UV, base.NormalIntensity)

	var out math32.Vector3
	switch mat := td.Material.(type) {
	case *scene.PBRMaterial:
		out = shadePBR(mat, base, albedo, frag, normal, ctx)
	case *scene.BlinnPhongMaterial:
		out = shadeBlinnPhong(mat, base, albedo, frag, normal, ctx)
	default:
		out = albedo
	}

	out.SetAdd(base.Emissive)
	return out, base.Alpha
}

func albedoFor(td *TriangleData, uv math32.Vector2, ctx *ShadeContext) math32.Vector3 {
	base := td.Material.AsMaterialBase()
	switch td.TextureSource {
	case scene.TextureImage:
		tex, err := ctx.Scene.TextureByName(base.TextureName)
		if err == nil && tex != nil {
			return blend.ToLinear3(tex.Sample(uv))
		}
		return base.Color
	case scene.TextureFaceColor:
		return td.FaceColor
	default:
		return base.Color
	}
}

func perturbNormal(n math32.Vector3, uv math32.Vector2, intensity float32) math32.Vector3 {
	if intensity == 1 || n.IsNil() {
		return n
	}
	amt := intensity - 1
	dx := math32.Sin(uv.X*37) * 0.15 * amt
	dy := math32.Sin(uv.Y*53+1.7) * 0.15 * amt
	t, b := orthonormalBasis(n)
	perturbed := n.Add(t.MulScalar(dx)).Add(b.MulScalar(dy))
	if perturbed.IsNil() {
		return n
	}
	return perturbed.Normal()
}

func orthonormalBasis(n math32.Vector3) (t, b math32.Vector3) {
	up := math32.Vec3(0, 1, 0)
	if math32.Abs(n.Y) > 0.99 {
		up = math32.Vec3(1, 0, 0)
	}
	t = up.Cross(n).Normal()
	b = n.Cross(t)
	return
}

// ambientTerm scales the scene ambient by the material's per-channel
// AmbientFactor before either shading branch uses it, then optionally
// modulates the result by the enhanced-AO heuristic.
func ambientTerm(base *scene.MaterialBase, frag Fragment, ctx *ShadeContext) math32.Vector3 {
	amb := ctx.Scene.Ambient.Radiance()
	amb = math32.Vec3(amb.X*base.AmbientFactor.X, amb.Y*base.AmbientFactor.Y, amb.Z*base.AmbientFactor.Z)
	if ctx.Options.EnhancedAO {
		amb = amb.MulScalar(enhancedAO(frag, ctx.Options.AOStrength))
	}
	return amb
}

// enhancedAO is a screen-space ambient-occlusion approximation: a
// weighted combination of an up-facing-normal term, a normal-variance
// curvature term, a barycentric edge-proximity term, and a
// barycentric-centroid-distance term, clamped to [0.05,1] and scaled by
// strength.
func enhancedAO(frag Fragment, strength float32) float32 {
	upFacing := math32.Pow((frag.WorldNormal.Y+1)/2, 1.5)

	minBary := frag.Bary[0]
	if frag.Bary[1] < minBary {
		minBary = frag.Bary[1]
	}
	if frag.Bary[2] < minBary {
		minBary = frag.Bary[2]
	}
	edgeProximity := math32.Clamp(minBary*3, 0, 1)

	centroidDist := math32.Abs(frag.Bary[0]-1.0/3) + math32.Abs(frag.Bary[1]-1.0/3) + math32.Abs(frag.Bary[2]-1.0/3)
	centroidTerm := math32.Clamp(1-centroidDist, 0, 1)

	// Curvature needs the three vertex normals, which Fragment does not
	// carry; approximate it from how far the interpolated normal has
	// drifted from the up-facing term alone (zero when the surface is
	// locally flat).
	curvature := math32.Clamp(1-math32.Abs(frag.WorldNormal.Y), 0, 1)

	factor := 0.5*upFacing + 0.3*curvature + 0.15*edgeProximity + 0.05*centroidTerm
	factor = math32.Clamp(factor, 0.05, 1)
	return math32.Lerp(1, factor, strength)
}

// softShadowFactor is a heuristic soft-shadow approximation, independent
// of and multiplicative with the real shadow-map test. viewDist is the
// fragment's world-space distance from the eye, not a normalized direction.
func softShadowFactor(n, l math32.Vector3, viewDist, strength float32) float32 {
	grazing := math32.Clamp(n.Dot(l), 0, 1)
	depthTerm := math32.Clamp(1-viewDist/50, 0.3, 1)
	variance := math32.Clamp(1-math32.Abs(n.Y), 0, 1)
	factor := 0.5*grazing + 0.3*depthTerm + 0.2*(1-variance)
	factor = math32.Clamp(factor, 0.1, 1)
	return math32.Lerp(1, factor, strength)
}

func shadeBlinnPhong(mat *scene.BlinnPhongMaterial, base *scene.MaterialBase, albedo math32.Vector3, frag Fragment, n math32.Vector3, ctx *ShadeContext) math32.Vector3 {
	ambient := ambientTerm(base, frag, ctx).Mul(albedo)
	out := ambient

	for _, light := range ctx.Scene.Lights {
		if !light.Enabled() {
			continue
		}
		lb := light.AsLightBase()
		l := lightDirFor(light, frag.WorldPos)
		nDotL := math32.Max(n.Dot(l), 0)
		if nDotL <= 0 {
			continue
		}
		atten := attenuationFor(light, frag.WorldPos)
		radiance := lb.Radiance().MulScalar(atten)

		diffuse := albedo.MulScalar(mat.DiffuseIntensity * nDotL)
		diffuse = diffuse.Mul(radiance)

		half := l.Add(frag.ViewDir).Normal()
		specFactor := math32.Pow(math32.Max(n.Dot(half), 0), mat.Shininess)
		specular := mat.Specular.MulScalar(mat.SpecularIntensity * specFactor)
		specular = specular.Mul(radiance)

		contrib := diffuse.Add(specular)
		contrib = applyShadowAndHeuristics(contrib, light, frag, n, l, ctx)
		out.SetAdd(contrib)
	}
	return out
}

func shadePBR(mat *scene.PBRMaterial, base *scene.MaterialBase, albedo math32.Vector3, frag Fragment, n math32.Vector3, ctx *ShadeContext) math32.Vector3 {
	f0 := blend.Mix(math32.Vec3(0.04, 0.04, 0.04), albedo, mat.Metallic)
	alpha := mat.Roughness * mat.Roughness
	alpha2 := alpha * alpha
	k := (alpha + 1) * (alpha + 1) / 8

	nov := math32.Max(n.Dot(frag.ViewDir), 1e-4)

	var lo math32.Vector3
	for _, light := range ctx.Scene.Lights {
		if !light.Enabled() {
			continue
		}
		lb := light.AsLightBase()
		l := lightDirFor(light, frag.WorldPos)
		nol := math32.Max(n.Dot(l), 0)
		if nol <= 0 {
			continue
		}
		atten := attenuationFor(light, frag.WorldPos)
		radiance := lb.Radiance().MulScalar(atten)

		h := l.Add(frag.ViewDir).Normal()
		noh := math32.Max(n.Dot(h), 0)
		voh := math32.Max(frag.ViewDir.Dot(h), 0)

		d := ggxDistribution(noh, alpha2)
		g := smithGeometry(nov, k) * smithGeometry(nol, k)
		f := schlickFresnel(f0, voh)

		denom := 4*nov*nol + 1e-4
		fSpec := f.MulScalar(d * g / denom)

		kd := math32.Vec3(1, 1, 1).Sub(f).MulScalar(1 - mat.Metallic)
		fDiff := math32.Vec3(kd.X*albedo.X, kd.Y*albedo.Y, kd.Z*albedo.Z).MulScalar(1 / math32.Pi)

		contrib := fDiff.Add(fSpec).Mul(radiance).MulScalar(nol)

		if mat.Subsurface > 0 {
			w := float32(0.5)
			wrap := math32.Max((n.Dot(l)+w)/(1+w), 0)
			sss := albedo.MulScalar(mat.Subsurface * wrap)
			contrib.SetAdd(sss.Mul(lb.Color))
		}

		contrib = applyShadowAndHeuristics(contrib, light, frag, n, l, ctx)
		lo.SetAdd(contrib)
	}

	ambient := ambientTerm(base, frag, ctx).Mul(albedo).MulScalar(mat.AmbientOcclusion)
	out := ambient.Add(lo)
	return out
}

// applyShadowAndHeuristics multiplies a light's contribution by the real
// shadow-map visibility (for the shadow-casting directional light only —
// identified by pointer identity against ctx.ShadowLight, since a scene may
// have more than one enabled directional light) and, if enabled, the
// heuristic soft-shadow factor; the two are independent and stack
// multiplicatively.
func applyShadowAndHeuristics(contrib math32.Vector3, light scene.Light, frag Fragment, n, l math32.Vector3, ctx *ShadeContext) math32.Vector3 {
	if dl, ok := light.(*scene.DirLight); ok && ctx.ShadowMap != nil && dl == ctx.ShadowLight {
		visibility := ctx.ShadowMap.Visibility(frag.WorldPos, n, ctx.Options.ShadowOptions)
		contrib = contrib.MulScalar(visibility)
	}
	if ctx.Options.SoftShadows {
		contrib = contrib.MulScalar(softShadowFactor(n, l, frag.ViewDist, ctx.Options.ShadowStrength))
	}
	return contrib
}

func lightDirFor(l scene.Light, p math32.Vector3) math32.Vector3 {
	switch t := l.(type) {
	case *scene.DirLight:
		return t.LightDir(p)
	case *scene.PointLight:
		return t.LightDir(p)
	default:
		return math32.Vec3(0, 1, 0)
	}
}

func attenuationFor(l scene.Light, p math32.Vector3) float32 {
	switch t := l.(type) {
	case *scene.DirLight:
		return t.Attenuation(p)
	case *scene.PointLight:
		return t.Attenuation(p)
	default:
		return 1
	}
}

// ggxDistribution is the GGX/Trowbridge-Reitz normal distribution term D.
func ggxDistribution(noh, alpha2 float32) float32 {
	denom := noh*noh*(alpha2-1) + 1
	return alpha2 / (math32.Pi * denom * denom)
}

// smithGeometry is the Schlick-GGX single-term geometry factor g1.
func smithGeometry(x, k float32) float32 {
	return x / (x*(1-k) + k)
}

// schlickFresnel is the Schlick approximation to the Fresnel term.
func schlickFresnel(f0 math32.Vector3, voh float32) math32.Vector3 {
	t := math32.Pow(1-voh, 5)
	return f0.Add(math32.Vec3(1, 1, 1).Sub(f0).MulScalar(t))
}
