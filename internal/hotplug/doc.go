// Package hotplug listens on the kernel udev netlink socket for DRM
// connector changes and reports each matching uevent to a callback.
package hotplug
