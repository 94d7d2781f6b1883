// Package generic implements a providers.Scraper for general HTML manga
// reading sites. It lists chapter links and turns a reader page into image
// candidates (img, picture, CSS backgrounds, anchors, embedded JSON, loose
// URLs, optionally JS-discovered endpoints) for the page detector. Noise such
// as logos or banners is deliberately kept: the detector scores it out.
package generic
