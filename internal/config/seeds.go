package config

// DefaultSeedURLs are the gallery pages crawled when no seed list is configured.
var DefaultSeedURLs = []string{
	"https://planner5d.com/gallery/floorplans/LTXdJG/floorplans-house-terrace-decor-diy-landscape-3d",
	"https://planner5d.com/gallery/floorplans/LJePOG/floorplans-house-3d",
	"https://planner5d.com/gallery/floorplans/LJcePG/floorplans-house-terrace-furniture-decor-bedroom-3d",
	"https://planner5d.com/gallery/floorplans/LJZPOG/floorplans-house-decor-lighting-dining-room-3d",
	"https://planner5d.com/gallery/floorplans/LJSSLG/floorplans-bedroom-3d",
	"https://planner5d.com/gallery/floorplans/LJXXfG/floorplans-house-decor-outdoor-lighting-architecture-3d",
	"https://planner5d.com/gallery/floorplans/LJfTfG/floorplans-apartment-kitchen-renovation-architecture-3d",
	"https://planner5d.com/gallery/floorplans/LJfTGG/floorplans-architecture-3d",
	"https://planner5d.com/gallery/floorplans/LJfTSG/floorplans-living-room-3d",
	"https://planner5d.com/gallery/floorplans/LJfTOG/floorplans-house-3d",
	"https://planner5d.com/gallery/floorplans/LJfHSG/floorplans-house-decor-living-room-lighting-3d",
	"https://planner5d.com/gallery/floorplans/LJfGLG/floorplans-kitchen-3d",
	"https://planner5d.com/gallery/floorplans/LJdccG/floorplans-apartment-furniture-bedroom-living-room-kitchen-3d",
	"https://planner5d.com/gallery/floorplans/LPJaZZ/floorplans-house-terrace-furniture-decor-3d",
	"https://planner5d.com/gallery/floorplans/LXHZXG/floorplans-house-furniture-decor-outdoor-3d",
	"https://planner5d.com/gallery/floorplans/LTfGcG/floorplans-house-architecture-3d",
	"https://planner5d.com/gallery/floorplans/LXSdaG/floorplans-house-furniture-decor-lighting-household-3d",
	"https://planner5d.com/gallery/floorplans/LGHGaZ/floorplans-house-diy-architecture-3d",
	"https://planner5d.com/gallery/floorplans/LHadbZ/floorplans-house-terrace-outdoor-architecture-3d",
	"https://planner5d.com/gallery/floorplans/ePJfa/floorplans-apartment-3d",
	"https://planner5d.com/gallery/floorplans/ccGGe/floorplans-kitchen-3d",
	"https://planner5d.com/gallery/floorplans/JeGae/floorplans-3d",
	"https://planner5d.com/gallery/floorplans/JJHbZ/floorplans-3d",
	"https://planner5d.com/gallery/floorplans/JPJfG/floorplans-3d",
	"https://planner5d.com/gallery/floorplans/JGSGZ/floorplans-3d",
}
